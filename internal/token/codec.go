package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/clinreport/portal-api/internal/model"
)

// sessionClaims mirrors the payload the remote issuer embeds in a session
// credential. The subject id is carried either as the registered "sub"
// claim or as "user_id", depending on issuer version.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role"`
}

// Decode inspects a session credential's claims without verifying its
// signature. It is used only for routing decisions; the remote API is the
// sole authority on validity and is consulted before any privileged
// operation executes. Returns nil on any malformed input.
func Decode(credential string) *model.TokenClaims {
	if credential == "" {
		return nil
	}

	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return nil
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		return nil
	}

	return &model.TokenClaims{SubjectID: subject, Role: role}
}

// IsRole reports whether the credential decodes to the given role. False
// for anything Decode rejects.
func IsRole(credential string, role model.Role) bool {
	claims := Decode(credential)
	return claims != nil && claims.Role == role
}
