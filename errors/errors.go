// Package errors provides the service's error taxonomy.
// Every failure that reaches an HTTP handler is an *AppError carrying a
// machine-readable code, the status to render and optional details.
package errors

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// maxUpstreamBody bounds how much of an upstream response body is kept in details.
const maxUpstreamBody = 512

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the HTTP status code rendered for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError. Retryable is derived from httpStatus.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  retryableStatus(httpStatus),
	}
}

// --- Request errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// PayloadTooLarge creates a new AppError for content above limit bytes.
func PayloadTooLarge(limit int64, label string) *AppError {
	return &AppError{
		Code: ErrCodePayloadTooLarge, Message: fmt.Sprintf("File too large (max %s)", label),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
		Details: map[string]any{"max_bytes": limit},
	}
}

// NotFound creates a new AppError for an unknown route or resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// --- Upstream errors ---

// UpstreamUpload creates a new AppError for a failed upload step. A status of
// zero or outside the error range is rendered as 502.
func UpstreamUpload(step string, status int, body []byte) *AppError {
	return upstream(ErrCodeUpstreamUpload, fmt.Sprintf("%s failed", step), status, body).
		WithDetail("step", step)
}

// UpstreamGeneration creates a new AppError for a rejected generation request.
func UpstreamGeneration(status int, body []byte) *AppError {
	return upstream(ErrCodeUpstreamGeneration, "Note generation failed", status, body)
}

// Upstream creates a new AppError for a failed upstream request outside the
// upload and generation flows.
func Upstream(operation string, status int, body []byte) *AppError {
	return upstream(ErrCodeUpstream, fmt.Sprintf("%s failed", operation), status, body)
}

// EmptyResponse creates a new AppError for a generation response without text.
func EmptyResponse() *AppError {
	return &AppError{
		Code: ErrCodeEmptyResponse, Message: "No response content from API",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// ResponseParse creates a new AppError for an undecodable upstream response.
func ResponseParse(what string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeResponseParse, Message: fmt.Sprintf("Failed to parse %s", what),
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

func upstream(code ErrorCode, message string, status int, body []byte) *AppError {
	rendered := status
	if rendered < 400 || rendered > 599 {
		rendered = http.StatusBadGateway
	}
	e := &AppError{
		Code: code, Message: message,
		HTTPStatus: rendered, Retryable: retryableStatus(status),
		Details: map[string]any{},
	}
	if status != 0 {
		e.Details["upstream_status"] = status
	}
	if len(body) > 0 {
		e.Details["upstream_body"] = Truncate(string(body), maxUpstreamBody)
	}
	return e
}

// Truncate shortens s to at most n bytes, marking the cut. The cut never
// splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...(truncated)"
}

// --- Internal errors ---

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Configuration creates a new AppError for invalid service configuration.
func Configuration(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: reason,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}
