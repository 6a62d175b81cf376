package auth

import (
	"context"

	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/token"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
)

// RemoteAPI is the slice of the remote client this service consumes.
type RemoteAPI interface {
	Login(ctx context.Context, email, password string) (*model.TokenResponse, error)
	IdentifyByToken(ctx context.Context, linkToken string) (*model.Account, error)
}

// Service implements the session login flow and link identity resolution.
// It holds no state across requests; identity is re-derived from the
// presented credential on every call.
type Service struct {
	remote RemoteAPI
}

func NewService(remote RemoteAPI) *Service {
	return &Service{remote: remote}
}

// Login authenticates against the remote API and then binds the minted
// credential to the calling portal. A credential decoding to the other
// portal's role is rejected with wrong_portal and must not be persisted
// as a cookie by the caller.
func (s *Service) Login(ctx context.Context, email, password string, required model.Role) (*model.TokenResponse, error) {
	resp, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	claims := token.Decode(resp.Token)
	if claims == nil {
		return nil, apperrors.InvalidToken(nil)
	}
	if claims.Role != required {
		return nil, apperrors.WrongPortal(nil)
	}

	return resp, nil
}

// ResolveLink resolves a link credential to its account. The remote API
// enforces the approval and password-mode gates; the checks are repeated
// here on the returned projection so a misbehaving remote cannot hand an
// unapproved account to a handler. Reasons follow the documented priority:
// pending, rejected, password_required, then invalid_token.
func (s *Service) ResolveLink(ctx context.Context, linkToken string) (*model.Account, error) {
	if linkToken == "" {
		return nil, apperrors.Unauthorized(nil)
	}

	account, err := s.remote.IdentifyByToken(ctx, linkToken)
	if err != nil {
		return nil, err
	}

	switch account.Status {
	case model.AccountStatusPending:
		return nil, apperrors.AccountPending(nil)
	case model.AccountStatusRejected:
		return nil, apperrors.AccountRejected(nil)
	}
	if account.RequirePassword {
		// A dormant stored token does not reopen link access once the
		// account switched to password mode.
		return nil, apperrors.PasswordRequired(nil)
	}

	return account, nil
}
