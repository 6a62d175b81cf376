package report

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinreport/portal-api/internal/middleware"
	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/internal/remote"
	apperrors "github.com/clinreport/portal-api/pkg/errors"
	"github.com/clinreport/portal-api/pkg/httputil"
)

// RemoteAPI is the slice of the remote client this handler consumes.
type RemoteAPI interface {
	SubmitReport(ctx context.Context, creds remote.Credentials, payload json.RawMessage) (json.RawMessage, error)
}

// Handler forwards test-result submissions from the doctor portal to the
// remote API unchanged. It is glue: the auth context answers who is
// submitting, the remote validates the payload.
type Handler struct {
	remote RemoteAPI
}

func NewHandler(client RemoteAPI) *Handler {
	return &Handler{remote: client}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	reports.Use(middleware.RequireRole(model.RoleDoctor))
	{
		reports.POST("", h.submit)
	}
}

func (h *Handler) submit(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: apperrors.CodeValidationFailed, Message: "empty report payload"},
		})
		return
	}
	if !json.Valid(payload) {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: apperrors.CodeValidationFailed, Message: "report payload must be JSON"},
		})
		return
	}

	authCtx, _ := middleware.AuthFromContext(c)
	creds := remote.Credentials{
		SessionToken: authCtx.SessionToken,
		LinkToken:    authCtx.LinkToken,
	}

	result, err := h.remote.SubmitReport(c.Request.Context(), creds, payload)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httputil.Response{Success: true, Data: result})
}
