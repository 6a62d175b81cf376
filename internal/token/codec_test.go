package token

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinreport/portal-api/internal/model"
)

func mintCredential(t *testing.T, sub, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "role": role}
	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return credential
}

func TestDecodeValidCredential(t *testing.T) {
	credential := mintCredential(t, "acct-1", "doctor")

	claims := Decode(credential)
	require.NotNil(t, claims)
	assert.Equal(t, "acct-1", claims.SubjectID)
	assert.Equal(t, model.RoleDoctor, claims.Role)
}

func TestDecodeUserIDFallback(t *testing.T) {
	claims := jwt.MapClaims{"user_id": "acct-2", "role": "admin"}
	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	decoded := Decode(credential)
	require.NotNil(t, decoded)
	assert.Equal(t, "acct-2", decoded.SubjectID)
	assert.Equal(t, model.RoleAdmin, decoded.Role)
}

func TestDecodeMalformedInput(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))

	tests := []struct {
		name       string
		credential string
	}{
		{"empty string", ""},
		{"not a token", "garbage"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"non-json payload", "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig"},
		{"invalid base64", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, Decode(tt.credential))
			})
		})
	}
}

func TestDecodeRejectsUnknownRole(t *testing.T) {
	assert.Nil(t, Decode(mintCredential(t, "acct-1", "superuser")))
	assert.Nil(t, Decode(mintCredential(t, "acct-1", "")))
}

func TestDecodeRejectsMissingSubject(t *testing.T) {
	assert.Nil(t, Decode(mintCredential(t, "", "doctor")))
}

func TestIsRole(t *testing.T) {
	admin := mintCredential(t, "acct-1", "admin")
	doctor := mintCredential(t, "acct-2", "doctor")

	assert.True(t, IsRole(admin, model.RoleAdmin))
	assert.False(t, IsRole(admin, model.RoleDoctor))
	assert.True(t, IsRole(doctor, model.RoleDoctor))
	assert.False(t, IsRole("", model.RoleAdmin))
	assert.False(t, IsRole("junk", model.RoleDoctor))
}
