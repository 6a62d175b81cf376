package account

import (
	"context"

	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/remote"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
)

// RemoteAPI is the slice of the remote client this service consumes.
type RemoteAPI interface {
	Preregister(ctx context.Context, req *model.PreregisterRequest) (*model.Account, error)
	Validate(ctx context.Context, creds remote.Credentials, accountID string, status model.AccountStatus) (*model.Account, error)
	RegenerateLinkToken(ctx context.Context, creds remote.Credentials, accountID string) (*model.Account, error)
	GetProfile(ctx context.Context, creds remote.Credentials) (*model.Account, error)
	UpdateProfile(ctx context.Context, creds remote.Credentials, req *model.UpdateProfileRequest) (*model.Account, error)
	ListAccounts(ctx context.Context, creds remote.Credentials, status model.AccountStatus) ([]model.Account, error)
}

// Service drives the account lifecycle: preregistration, admin
// approval, link-token regeneration and profile updates. All mutation is
// owned and serialized by the remote system; nothing is retried here.
type Service struct {
	remote RemoteAPI
}

func NewService(remote RemoteAPI) *Service {
	return &Service{remote: remote}
}

// Preregister creates a pending account. Password-mode applicants must
// supply both email and password; these checks run locally so the form
// gets field-level detail without a round trip.
func (s *Service) Preregister(ctx context.Context, req *model.PreregisterRequest) (*model.Account, error) {
	if req.RequirePassword {
		fields := map[string]string{}
		if req.Email == nil || *req.Email == "" {
			fields["email"] = "required when password login is selected"
		}
		if req.Password == nil || *req.Password == "" {
			fields["password"] = "required when password login is selected"
		} else if len(*req.Password) < 8 {
			fields["password"] = "must be at least 8 characters"
		}
		if len(fields) > 0 {
			return nil, apperrors.ValidationFailed("", fields)
		}
	}

	return s.remote.Preregister(ctx, req)
}

// Validate transitions a pending account. The remote accepts the call
// idempotently on non-pending accounts; whatever it returns is surfaced
// unchanged.
func (s *Service) Validate(ctx context.Context, creds remote.Credentials, accountID string, status model.AccountStatus) (*model.Account, error) {
	if status != model.AccountStatusApproved && status != model.AccountStatusRejected {
		return nil, apperrors.ValidationFailed("", map[string]string{
			"status": "must be approved or rejected",
		})
	}
	return s.remote.Validate(ctx, creds, accountID, status)
}

// RegenerateLinkToken replaces the account's link token. The replace is
// atomic on the remote side; after a success response the previous value
// no longer resolves.
func (s *Service) RegenerateLinkToken(ctx context.Context, creds remote.Credentials, accountID string) (*model.Account, error) {
	return s.remote.RegenerateLinkToken(ctx, creds, accountID)
}

// GetProfile fetches the caller's account projection.
func (s *Service) GetProfile(ctx context.Context, creds remote.Credentials) (*model.Account, error) {
	return s.remote.GetProfile(ctx, creds)
}

// UpdateProfile applies self-service changes. Toggling require_password
// does not invalidate an already-issued session credential; it only
// changes which credential mode resolves from now on.
func (s *Service) UpdateProfile(ctx context.Context, creds remote.Credentials, req *model.UpdateProfileRequest) (*model.Account, error) {
	if req.RequirePassword != nil && *req.RequirePassword {
		if req.Password != nil && len(*req.Password) < 8 {
			return nil, apperrors.ValidationFailed("", map[string]string{
				"password": "must be at least 8 characters",
			})
		}
	}
	return s.remote.UpdateProfile(ctx, creds, req)
}

// ListPending feeds the admin approval queue.
func (s *Service) ListPending(ctx context.Context, creds remote.Credentials) ([]model.Account, error) {
	return s.remote.ListAccounts(ctx, creds, model.AccountStatusPending)
}
