package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Auth / consent errors
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeForbidden        = "FORBIDDEN"
	CodeConsentDenied    = "CONSENT_DENIED"
	CodeKBConsentMissing = "KB_CONSENT_MISSING"

	// Validation errors
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeMissingField     = "MISSING_FIELD"

	// Resource errors
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeConflict      = "CONFLICT"

	// External / agent errors
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeProviderFailure    = "PROVIDER_FAILURE"
	CodeToolExecutionError = "TOOL_EXECUTION_ERROR"
	CodeParseFailure       = "PARSE_FAILURE"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeTimeout       = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// Auth errors
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func InvalidToken(message string) *AppError {
	return &AppError{Code: CodeInvalidToken, Message: message, Status: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

// ConsentDenied means the primary consent token failed validation; the run aborts.
func ConsentDenied(reason string) *AppError {
	return &AppError{
		Code:    CodeConsentDenied,
		Message: fmt.Sprintf("consent validation failed: %s", reason),
		Status:  http.StatusForbidden,
	}
}

// KBConsentMissing marks the optional knowledge-base scope as absent. Callers
// downgrade instead of aborting.
func KBConsentMissing(reason string) *AppError {
	return &AppError{
		Code:    CodeKBConsentMissing,
		Message: fmt.Sprintf("knowledge base consent missing: %s", reason),
		Status:  http.StatusForbidden,
	}
}

// Validation errors
func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// Resource errors
func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource), Status: http.StatusNotFound}
}

func AlreadyExists(resource string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: fmt.Sprintf("%s already exists", resource), Status: http.StatusConflict}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

// External errors
func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: fmt.Sprintf("database error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// ProviderFailure wraps a mail/calendar/LLM/search provider error.
func ProviderFailure(provider string, err error) *AppError {
	return &AppError{
		Code:    CodeProviderFailure,
		Message: fmt.Sprintf("provider failure: %s", provider),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"provider": provider},
		Err:     err,
	}
}

// ToolExecutionError wraps a failed scheduler tool dispatch.
func ToolExecutionError(tool string, err error) *AppError {
	return &AppError{
		Code:    CodeToolExecutionError,
		Message: fmt.Sprintf("tool execution failed: %s", tool),
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"tool": tool},
		Err:     err,
	}
}

// ParseFailure marks unparseable model output.
func ParseFailure(what string) *AppError {
	return &AppError{
		Code:    CodeParseFailure,
		Message: fmt.Sprintf("failed to parse %s", what),
		Status:  http.StatusInternalServerError,
	}
}

// Internal errors
func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{Code: CodeInternalError, Message: message, Status: http.StatusInternalServerError}
}

func InternalWithError(err error) *AppError {
	return &AppError{Code: CodeInternalError, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

func ConfigError(message string) *AppError {
	return &AppError{Code: CodeConfigError, Message: message, Status: http.StatusInternalServerError}
}

func Timeout(operation string) *AppError {
	return &AppError{Code: CodeTimeout, Message: fmt.Sprintf("operation timed out: %s", operation), Status: http.StatusGatewayTimeout}
}

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
