package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/clinreport/portal-api/internal/middleware"
	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/remote"
	accountService "github.com/clinreport/portal-api/internal/service/account"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
	"github.com/clinreport/portal-api/pkg/httputil"
)

type Handler struct {
	svc *accountService.Service
}

func NewHandler(svc *accountService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the account lifecycle API. The group is expected
// to already carry the auth context middleware.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/accounts/pending", h.listPending)
		admin.POST("/accounts/:id/validate", h.validate)
		admin.POST("/accounts/:id/regenerate-token", h.regenerate)
	}

	profile := r.Group("/profile")
	{
		profile.GET("", h.getProfile)
		profile.PUT("", h.updateProfile)
		profile.POST("/regenerate-token", h.regenerateOwn)
	}
}

func credentials(authCtx *model.AuthContext) remote.Credentials {
	return remote.Credentials{
		SessionToken: authCtx.SessionToken,
		LinkToken:    authCtx.LinkToken,
	}
}

func (h *Handler) listPending(c *gin.Context) {
	authCtx, _ := middleware.AuthFromContext(c)

	accounts, err := h.svc.ListPending(c.Request.Context(), credentials(authCtx))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, accounts)
}

// validate transitions a pending account to approved or rejected. Only an
// admin reaches this handler; the remote re-checks authorization on its
// side as well.
func (h *Handler) validate(c *gin.Context) {
	var req model.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: apperrors.CodeValidationFailed, Message: err.Error()},
		})
		return
	}

	authCtx, _ := middleware.AuthFromContext(c)
	account, err := h.svc.Validate(c.Request.Context(), credentials(authCtx), c.Param("id"), req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	log.Info().
		Str("account_id", account.ID).
		Str("status", string(account.Status)).
		Str("admin_id", authCtx.AccountID).
		Msg("account validated")

	httputil.RespondWithSuccess(c, account)
}

func (h *Handler) regenerate(c *gin.Context) {
	authCtx, _ := middleware.AuthFromContext(c)

	account, err := h.svc.RegenerateLinkToken(c.Request.Context(), credentials(authCtx), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, account)
}

// regenerateOwn is the self-service variant; the target account is the
// caller's own.
func (h *Handler) regenerateOwn(c *gin.Context) {
	authCtx, _ := middleware.AuthFromContext(c)

	account, err := h.svc.RegenerateLinkToken(c.Request.Context(), credentials(authCtx), authCtx.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, account)
}

func (h *Handler) getProfile(c *gin.Context) {
	authCtx, _ := middleware.AuthFromContext(c)

	account, err := h.svc.GetProfile(c.Request.Context(), credentials(authCtx))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, account)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: apperrors.CodeValidationFailed, Message: err.Error()},
		})
		return
	}

	authCtx, _ := middleware.AuthFromContext(c)
	account, err := h.svc.UpdateProfile(c.Request.Context(), credentials(authCtx), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, account)
}
