package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/clinreport/portal-api/internal/guard"
	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/token"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
	"github.com/clinreport/portal-api/pkg/httputil"
)

const ContextAuthKey = "auth_context"

// AuthContextMiddleware merges the session cookie and the link token into
// one resolved identity for resource handlers. A cookie credential wins
// over a link token for identity purposes, but both are kept on the
// context so downstream remote calls can forward whichever is valid.
type AuthContextMiddleware struct {
	resolver   guard.LinkResolver
	cookieName string
}

func NewAuthContextMiddleware(resolver guard.LinkResolver, cookieName string) *AuthContextMiddleware {
	return &AuthContextMiddleware{resolver: resolver, cookieName: cookieName}
}

// BuildContext resolves the caller's identity or aborts with the
// appropriate failure code.
func (m *AuthContextMiddleware) BuildContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(m.cookieName)
		linkToken := c.Query("token")
		if linkToken == "" {
			linkToken = c.GetHeader("x-link-token")
		}

		authCtx, err := m.build(c.Request.Context(), cookie, linkToken)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAuthKey, authCtx)
		c.Next()
	}
}

func (m *AuthContextMiddleware) build(ctx context.Context, cookie, linkToken string) (*model.AuthContext, error) {
	if cookie != "" {
		claims := token.Decode(cookie)
		if claims == nil {
			return nil, apperrors.InvalidToken(nil)
		}
		return &model.AuthContext{
			Kind:         model.CredentialSession,
			AccountID:    claims.SubjectID,
			Role:         claims.Role,
			SessionToken: cookie,
			LinkToken:    linkToken,
		}, nil
	}

	if linkToken != "" {
		account, err := m.resolver.ResolveLink(ctx, linkToken)
		if err != nil {
			return nil, err
		}
		return &model.AuthContext{
			Kind:      model.CredentialLink,
			AccountID: account.ID,
			Role:      account.Role,
			LinkToken: linkToken,
			Account:   account,
		}, nil
	}

	return nil, apperrors.Unauthorized(nil)
}

// RequireRole gates an API group to one portal's role.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := AuthFromContext(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			c.Abort()
			return
		}
		if authCtx.Role != role {
			httputil.RespondWithError(c, apperrors.WrongPortal(nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthFromContext retrieves the identity placed by BuildContext.
func AuthFromContext(c *gin.Context) (*model.AuthContext, bool) {
	v, exists := c.Get(ContextAuthKey)
	if !exists {
		return nil, false
	}
	authCtx, ok := v.(*model.AuthContext)
	return authCtx, ok
}
