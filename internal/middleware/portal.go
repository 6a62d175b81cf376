package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinreport/portal-api/internal/guard"
	"github.com/clinreport/portal-api/internal/model"
)

const ContextPortalDecision = "portal_decision"

// PortalGuardMiddleware runs the page admission state machine once per
// navigation. Denials and anonymous visitors are redirected with an
// explanatory error code; admitted states carry the decision into the
// page handler.
type PortalGuardMiddleware struct {
	guard      *guard.Guard
	cookieName string
}

func NewPortalGuardMiddleware(g *guard.Guard, cookieName string) *PortalGuardMiddleware {
	return &PortalGuardMiddleware{guard: g, cookieName: cookieName}
}

// GuardPage gates a portal page group. Only the doctor portal honors the
// link-token query parameter; admin accounts have no link credentials.
func (m *PortalGuardMiddleware) GuardPage(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(m.cookieName)

		queryToken := ""
		if required == model.RoleDoctor {
			queryToken = c.Query("token")
		}

		decision := m.guard.EvaluatePage(c.Request.Context(), cookie, queryToken, required)

		switch decision.State {
		case guard.SessionAuthenticated, guard.LinkAuthenticated:
			c.Set(ContextPortalDecision, decision)
			c.Next()
		default:
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
		}
	}
}

// DecisionFromContext retrieves the admission decision set by GuardPage.
func DecisionFromContext(c *gin.Context) (guard.Decision, bool) {
	v, exists := c.Get(ContextPortalDecision)
	if !exists {
		return guard.Decision{}, false
	}
	decision, ok := v.(guard.Decision)
	return decision, ok
}
