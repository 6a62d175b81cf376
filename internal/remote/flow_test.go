package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/remote"
	accountService "github.com/clinreport/portal-api/internal/service/account"
	authService "github.com/clinreport/portal-api/internal/service/auth"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
)

// fakeRemote is a stateful stand-in for the remote reporting API. It
// owns the account records and serializes all mutation, like the real
// one does.
type fakeRemote struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	byToken  map[string]string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		accounts: make(map[string]*model.Account),
		byToken:  make(map[string]string),
	}
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/preregister", f.preregister)
	mux.HandleFunc("/auth/identify-by-token", f.identify)
	mux.HandleFunc("/auth/users/", f.users)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   map[string]interface{}{"code": code},
	})
}

func (f *fakeRemote) preregister(w http.ResponseWriter, r *http.Request) {
	var req model.PreregisterRequest
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()

	account := &model.Account{
		ID:              uuid.New().String(),
		Role:            model.RoleDoctor,
		ICPNumber:       req.ICPNumber,
		CityID:          req.CityID,
		RequirePassword: req.RequirePassword,
		Status:          model.AccountStatusPending,
	}
	if !req.RequirePassword {
		tok := uuid.New().String()
		account.LinkToken = &tok
		f.byToken[tok] = account.ID
	}
	f.accounts[account.ID] = account

	writeData(w, account)
}

func (f *fakeRemote) identify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.byToken[req.Token]
	if !ok {
		writeError(w, http.StatusNotFound, "invalid_token")
		return
	}
	account := f.accounts[id]
	switch account.Status {
	case model.AccountStatusPending:
		writeError(w, http.StatusForbidden, "account_pending")
		return
	case model.AccountStatusRejected:
		writeError(w, http.StatusForbidden, "account_rejected")
		return
	}
	if account.RequirePassword {
		writeError(w, http.StatusForbidden, "password_required")
		return
	}
	writeData(w, account)
}

func (f *fakeRemote) users(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/auth/users/"), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	id, action := parts[0], parts[1]

	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	switch action {
	case "validate":
		var req struct {
			Status model.AccountStatus `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		account.Status = req.Status
		writeData(w, account)
	case "regenerate-token":
		// Atomic swap: the old value stops resolving the instant the
		// new one is committed.
		if account.LinkToken != nil {
			delete(f.byToken, *account.LinkToken)
		}
		tok := uuid.New().String()
		account.LinkToken = &tok
		f.byToken[tok] = account.ID
		writeData(w, account)
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

func intptr(i int64) *int64 { return &i }

// Preregister, approve, then identify by link token: the full happy path
// of a link-mode doctor account.
func TestPreregisterApproveIdentifyFlow(t *testing.T) {
	fake := newFakeRemote()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := remote.NewClient(remote.Config{BaseURL: srv.URL})
	accounts := accountService.NewService(client)
	auth := authService.NewService(client)
	ctx := context.Background()
	admin := remote.Credentials{SessionToken: "admin-session"}

	created, err := accounts.Preregister(ctx, &model.PreregisterRequest{
		ICPNumber: "12345678",
		CityID:    intptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AccountStatusPending, created.Status)
	require.NotNil(t, created.LinkToken)

	// The token exists but must not resolve before approval.
	_, err = auth.ResolveLink(ctx, *created.LinkToken)
	assert.Equal(t, apperrors.CodeAccountPending, apperrors.CodeOf(err))

	approved, err := accounts.Validate(ctx, admin, created.ID, model.AccountStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.AccountStatusApproved, approved.Status)

	resolved, err := auth.ResolveLink(ctx, *created.LinkToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}

func TestRejectedAccountNeverResolves(t *testing.T) {
	fake := newFakeRemote()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := remote.NewClient(remote.Config{BaseURL: srv.URL})
	accounts := accountService.NewService(client)
	auth := authService.NewService(client)
	ctx := context.Background()
	admin := remote.Credentials{SessionToken: "admin-session"}

	created, err := accounts.Preregister(ctx, &model.PreregisterRequest{
		ICPNumber: "87654321",
		CityID:    intptr(2),
	})
	require.NoError(t, err)

	_, err = accounts.Validate(ctx, admin, created.ID, model.AccountStatusRejected)
	require.NoError(t, err)

	_, err = auth.ResolveLink(ctx, *created.LinkToken)
	assert.Equal(t, apperrors.CodeAccountRejected, apperrors.CodeOf(err))
}

// Regenerating twice in quick succession: only the final token resolves,
// every predecessor is permanently invalid.
func TestRegenerationInvalidatesPreviousTokens(t *testing.T) {
	fake := newFakeRemote()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := remote.NewClient(remote.Config{BaseURL: srv.URL})
	accounts := accountService.NewService(client)
	auth := authService.NewService(client)
	ctx := context.Background()
	admin := remote.Credentials{SessionToken: "admin-session"}

	created, err := accounts.Preregister(ctx, &model.PreregisterRequest{
		ICPNumber: "11223344",
		CityID:    intptr(3),
	})
	require.NoError(t, err)
	_, err = accounts.Validate(ctx, admin, created.ID, model.AccountStatusApproved)
	require.NoError(t, err)

	t1 := *created.LinkToken

	second, err := accounts.RegenerateLinkToken(ctx, admin, created.ID)
	require.NoError(t, err)
	t2 := *second.LinkToken
	require.NotEqual(t, t1, t2)

	third, err := accounts.RegenerateLinkToken(ctx, admin, created.ID)
	require.NoError(t, err)
	t3 := *third.LinkToken
	require.NotEqual(t, t2, t3)

	_, err = auth.ResolveLink(ctx, t1)
	assert.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(err))
	_, err = auth.ResolveLink(ctx, t2)
	assert.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(err))

	resolved, err := auth.ResolveLink(ctx, t3)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}

// Concurrent resolution against regeneration: every attempt sees either
// the old token while it was valid or invalid_token after the swap,
// never a half-applied state.
func TestConcurrentResolveDuringRegeneration(t *testing.T) {
	fake := newFakeRemote()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := remote.NewClient(remote.Config{BaseURL: srv.URL})
	accounts := accountService.NewService(client)
	auth := authService.NewService(client)
	ctx := context.Background()
	admin := remote.Credentials{SessionToken: "admin-session"}

	created, err := accounts.Preregister(ctx, &model.PreregisterRequest{
		ICPNumber: "99887766",
		CityID:    intptr(4),
	})
	require.NoError(t, err)
	_, err = accounts.Validate(ctx, admin, created.ID, model.AccountStatusApproved)
	require.NoError(t, err)

	t1 := *created.LinkToken

	var wg sync.WaitGroup
	results := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = auth.ResolveLink(ctx, t1)
		}(i)
	}

	regenerated, err := accounts.RegenerateLinkToken(ctx, admin, created.ID)
	require.NoError(t, err)
	wg.Wait()

	for i, res := range results {
		if res != nil {
			assert.Equal(t, apperrors.CodeInvalidToken, apperrors.CodeOf(res),
				fmt.Sprintf("attempt %d", i))
		}
	}

	resolved, err := auth.ResolveLink(ctx, *regenerated.LinkToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}

// Switching to password mode disables link access without regeneration.
func TestModeSwitchDisablesLinkAccess(t *testing.T) {
	fake := newFakeRemote()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := remote.NewClient(remote.Config{BaseURL: srv.URL})
	accounts := accountService.NewService(client)
	auth := authService.NewService(client)
	ctx := context.Background()
	admin := remote.Credentials{SessionToken: "admin-session"}

	created, err := accounts.Preregister(ctx, &model.PreregisterRequest{
		ICPNumber: "55667788",
		CityID:    intptr(5),
	})
	require.NoError(t, err)
	_, err = accounts.Validate(ctx, admin, created.ID, model.AccountStatusApproved)
	require.NoError(t, err)

	tok := *created.LinkToken
	_, err = auth.ResolveLink(ctx, tok)
	require.NoError(t, err)

	// Flip the mode directly on the record, as the profile update would.
	fake.mu.Lock()
	fake.accounts[created.ID].RequirePassword = true
	fake.mu.Unlock()

	_, err = auth.ResolveLink(ctx, tok)
	assert.Equal(t, apperrors.CodePasswordRequired, apperrors.CodeOf(err))
}
