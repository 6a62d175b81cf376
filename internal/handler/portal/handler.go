package portal

import (
	"github.com/gin-gonic/gin"

	"github.com/clinreport/portal-api/internal/middleware"
	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/pkg/httputil"
)

// Handler serves the guarded portal landing pages. Rendering proper is
// the front-end's job; these endpoints expose the admission decision the
// templates act on.
type Handler struct {
	pageGuard *middleware.PortalGuardMiddleware
}

func NewHandler(pageGuard *middleware.PortalGuardMiddleware) *Handler {
	return &Handler{pageGuard: pageGuard}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(h.pageGuard.GuardPage(model.RoleAdmin))
	{
		admin.GET("", h.home(model.RoleAdmin))
	}

	doctor := r.Group("/doctor")
	doctor.Use(h.pageGuard.GuardPage(model.RoleDoctor))
	{
		doctor.GET("", h.home(model.RoleDoctor))
		doctor.GET("/report", h.home(model.RoleDoctor))
	}
}

func (h *Handler) home(portal model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, _ := middleware.DecisionFromContext(c)

		payload := gin.H{
			"portal": portal,
			"state":  decision.State.String(),
		}
		if decision.Claims != nil {
			payload["account_id"] = decision.Claims.SubjectID
		}
		if decision.Account != nil {
			payload["account_id"] = decision.Account.ID
		}

		httputil.RespondWithSuccess(c, payload)
	}
}
