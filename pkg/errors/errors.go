package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. Codes double as the error query
// parameter values used on portal redirects, so they are wire-stable.
type Code string

const (
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidToken       Code = "invalid_token"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeAccountPending     Code = "account_pending"
	CodeAccountRejected    Code = "account_rejected"
	CodePasswordRequired   Code = "password_required"
	CodeWrongPortal        Code = "wrong_portal"
	CodeAdminDetected      Code = "admin_detected"
	CodeValidationFailed   Code = "validation_failed"
	CodeRemoteUnavailable  Code = "remote_unavailable"
)

// AppError represents an application error
type AppError struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the failure code from any error, falling back to
// remote_unavailable for errors this package did not classify.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeRemoteUnavailable
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Error constructors
func Unauthorized(err error) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: "no credential presented", Err: err}
}

func InvalidToken(err error) *AppError {
	return &AppError{Code: CodeInvalidToken, Message: "credential could not be resolved", Err: err}
}

func InvalidCredentials(err error) *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "invalid email or password", Err: err}
}

func AccountPending(err error) *AppError {
	return &AppError{Code: CodeAccountPending, Message: "account awaiting approval", Err: err}
}

func AccountRejected(err error) *AppError {
	return &AppError{Code: CodeAccountRejected, Message: "account was rejected", Err: err}
}

func PasswordRequired(err error) *AppError {
	return &AppError{Code: CodePasswordRequired, Message: "account requires password login", Err: err}
}

func WrongPortal(err error) *AppError {
	return &AppError{Code: CodeWrongPortal, Message: "credential belongs to the other portal", Err: err}
}

func ValidationFailed(message string, fields map[string]string) *AppError {
	if message == "" {
		message = "validation failed"
	}
	return &AppError{Code: CodeValidationFailed, Message: message, Fields: fields}
}

func RemoteUnavailable(err error) *AppError {
	return &AppError{Code: CodeRemoteUnavailable, Message: "reporting service unavailable", Err: err}
}

// FromCode rebuilds a typed error from a wire code, used when the remote
// API reports a classified failure.
func FromCode(code Code, message string, fields map[string]string) *AppError {
	if message == "" {
		message = string(code)
	}
	return &AppError{Code: code, Message: message, Fields: fields}
}
