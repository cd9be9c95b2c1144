package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeClient indicates any other 4xx response.
	ErrCodeClient
	// ErrCodeServer indicates a 5xx response.
	ErrCodeServer
	// ErrCodeUnexpected indicates a non-2xx status outside the error ranges.
	ErrCodeUnexpected
	// ErrCodeRequest indicates the request could not be built.
	ErrCodeRequest
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeClient:
		return "client"
	case ErrCodeServer:
		return "server"
	case ErrCodeUnexpected:
		return "unexpected_status"
	case ErrCodeRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error.
type Error struct {
	// StatusCode is the HTTP status code (0 for transport-level errors).
	StatusCode int
	Code       ErrorCode
	Message    string
	// Retryable reports whether the failure is transient.
	Retryable bool
	// Body is the response body, if any.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewRequestError creates an error for a request that could not be built.
func NewRequestError(msg string) *Error {
	return &Error{Code: ErrCodeRequest, Message: msg}
}

// NewStatusError builds the typed error for an upstream status code.
func NewStatusError(statusCode int, msg string, body []byte) *Error {
	e := ClassifyStatusCode(statusCode, body)
	if e == nil {
		e = &Error{StatusCode: statusCode, Code: ErrCodeUnexpected, Body: body}
	}
	if msg != "" {
		e.Message = msg
	}
	return e
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Message: fmt.Sprintf("HTTP %d", statusCode), Body: body}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 429:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeClient
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeUnexpected
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsRetryable checks if an error is transient.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
