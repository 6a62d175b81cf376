package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinreport/portal-api/internal/model"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
)

// Config holds remote API client configuration. Values load from the
// config file and may be overridden from the environment.
type Config struct {
	BaseURL string        `mapstructure:"base_url" envconfig:"REMOTE_BASE_URL"`
	Timeout time.Duration `mapstructure:"timeout" envconfig:"REMOTE_TIMEOUT"`
}

// Credentials carries whatever the visitor presented. Both are forwarded
// so the remote API can apply whichever is valid.
type Credentials struct {
	SessionToken string
	LinkToken    string
}

// Client talks to the remote reporting API that owns all account and
// domain records. Every call is a single logical operation; rollback, if
// any, is the remote system's responsibility.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// envelope is the remote API's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var knownCodes = map[apperrors.Code]struct{}{
	apperrors.CodeInvalidToken:       {},
	apperrors.CodeInvalidCredentials: {},
	apperrors.CodeAccountPending:     {},
	apperrors.CodeAccountRejected:    {},
	apperrors.CodePasswordRequired:   {},
	apperrors.CodeValidationFailed:   {},
}

func (c *Client) do(ctx context.Context, method, path string, creds *Credentials, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.RemoteUnavailable(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.RemoteUnavailable(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	if creds != nil {
		if creds.SessionToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.SessionToken)
		}
		if creds.LinkToken != "" {
			req.Header.Set("x-link-token", creds.LinkToken)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apperrors.RemoteUnavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.RemoteUnavailable(err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperrors.RemoteUnavailable(fmt.Errorf("decode response (%d): %w", resp.StatusCode, err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && env.Success {
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return apperrors.RemoteUnavailable(err)
			}
		}
		return nil
	}

	return c.classify(resp.StatusCode, env.Error)
}

// classify maps a remote failure onto the local taxonomy. Codes the
// remote did not classify fall back by status.
func (c *Client) classify(status int, werr *wireError) error {
	if werr != nil {
		code := apperrors.Code(werr.Code)
		if _, ok := knownCodes[code]; ok {
			return apperrors.FromCode(code, werr.Message, werr.Fields)
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return apperrors.InvalidCredentials(nil)
	case status == http.StatusNotFound:
		return apperrors.InvalidToken(nil)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		msg := ""
		if werr != nil {
			msg = werr.Message
		}
		return apperrors.ValidationFailed(msg, nil)
	default:
		return apperrors.RemoteUnavailable(fmt.Errorf("remote returned %d", status))
	}
}

// Login submits portal credentials. The remote enforces the approval gate
// and password correctness before minting a session credential.
func (c *Client) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var data struct {
		Token string        `json:"token"`
		User  model.Account `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &data); err != nil {
		if apperrors.Is(err, apperrors.CodeInvalidToken) {
			// Unknown email collapses to invalid credentials for login.
			return nil, apperrors.InvalidCredentials(err)
		}
		return nil, err
	}
	return &model.TokenResponse{Token: data.Token, Account: &data.User}, nil
}

// IdentifyByToken resolves a link credential to its account. A token that
// never existed and a token superseded by regeneration both surface as
// invalid_token so account existence does not leak.
func (c *Client) IdentifyByToken(ctx context.Context, linkToken string) (*model.Account, error) {
	body := map[string]string{"token": linkToken}
	var account model.Account
	if err := c.do(ctx, http.MethodPost, "/auth/identify-by-token", nil, body, &account); err != nil {
		switch apperrors.CodeOf(err) {
		case apperrors.CodeAccountPending, apperrors.CodeAccountRejected,
			apperrors.CodePasswordRequired, apperrors.CodeRemoteUnavailable:
			return nil, err
		default:
			return nil, apperrors.InvalidToken(err)
		}
	}
	return &account, nil
}

// Preregister creates a pending account. No credential is issued; the
// applicant waits for admin approval.
func (c *Client) Preregister(ctx context.Context, req *model.PreregisterRequest) (*model.Account, error) {
	var account model.Account
	if err := c.do(ctx, http.MethodPost, "/auth/preregister", nil, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Validate transitions a pending account to approved or rejected.
func (c *Client) Validate(ctx context.Context, creds Credentials, accountID string, status model.AccountStatus) (*model.Account, error) {
	body := map[string]model.AccountStatus{"status": status}
	var account model.Account
	path := fmt.Sprintf("/auth/users/%s/validate", accountID)
	if err := c.do(ctx, http.MethodPost, path, &creds, body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// RegenerateLinkToken atomically replaces the account's link token. After
// a success response the previous value must be treated as permanently
// invalid.
func (c *Client) RegenerateLinkToken(ctx context.Context, creds Credentials, accountID string) (*model.Account, error) {
	var account model.Account
	path := fmt.Sprintf("/auth/users/%s/regenerate-token", accountID)
	if err := c.do(ctx, http.MethodPost, path, &creds, struct{}{}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetProfile fetches the caller's own account projection.
func (c *Client) GetProfile(ctx context.Context, creds Credentials) (*model.Account, error) {
	var account model.Account
	if err := c.do(ctx, http.MethodGet, "/auth/profile", &creds, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateProfile applies self-service profile changes.
func (c *Client) UpdateProfile(ctx context.Context, creds Credentials, req *model.UpdateProfileRequest) (*model.Account, error) {
	var account model.Account
	if err := c.do(ctx, http.MethodPut, "/auth/profile", &creds, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts feeds the admin approval queue.
func (c *Client) ListAccounts(ctx context.Context, creds Credentials, status model.AccountStatus) ([]model.Account, error) {
	var accounts []model.Account
	path := "/auth/users"
	if status != "" {
		path += "?status=" + string(status)
	}
	if err := c.do(ctx, http.MethodGet, path, &creds, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SubmitReport forwards a test-result payload unchanged.
func (c *Client) SubmitReport(ctx context.Context, creds Credentials, payload json.RawMessage) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/reports", &creds, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListCities fetches geography reference data.
func (c *Client) ListCities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := c.do(ctx, http.MethodGet, "/geo/cities", nil, nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// Ping checks remote reachability for the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return apperrors.RemoteUnavailable(err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return apperrors.RemoteUnavailable(err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return apperrors.RemoteUnavailable(fmt.Errorf("remote health returned %d", resp.StatusCode))
	}
	return nil
}
