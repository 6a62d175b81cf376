package model

// TokenClaims are the claims embedded in a session credential that this
// tier inspects for routing. The remote issuer remains the authority on
// signature validity.
type TokenClaims struct {
	SubjectID string
	Role      Role
}

// CredentialKind tags how a request proved its identity.
type CredentialKind string

const (
	CredentialSession CredentialKind = "session"
	CredentialLink    CredentialKind = "link"
)

// AuthContext is the resolved identity handed to resource handlers. It
// answers "who is making this request", not "may this request reach this
// portal"; portal admission is the guard's job.
type AuthContext struct {
	Kind      CredentialKind
	AccountID string
	Role      Role

	// Raw credentials, forwarded to the remote API so it can apply
	// whichever is valid.
	SessionToken string
	LinkToken    string

	// Account is populated only for link credentials, where resolution
	// already required a remote round trip.
	Account *Account
}

// TokenResponse is returned to a portal after a successful login.
type TokenResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}
