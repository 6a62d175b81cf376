package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinreport/portal-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.Code       `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusFor maps a failure code to its HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.CodeUnauthorized, errors.CodeInvalidToken, errors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case errors.CodeAccountPending, errors.CodeAccountRejected,
		errors.CodePasswordRequired, errors.CodeWrongPortal, errors.CodeAdminDetected:
		return http.StatusForbidden
	case errors.CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case errors.CodeRemoteUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	apiErr := &Error{
		Code:    errors.CodeRemoteUnavailable,
		Message: "reporting service unavailable",
	}
	if appErr, ok := err.(*errors.AppError); ok {
		apiErr.Code = appErr.Code
		apiErr.Message = appErr.Message
		apiErr.Fields = appErr.Fields
	}

	c.JSON(StatusFor(apiErr.Code), Response{
		Success: false,
		Error:   apiErr,
	})
}
