package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodePayloadTooLarge indicates the uploaded content exceeds the accepted size.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrCodeNotFound indicates the requested route or resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Upstream errors
const (
	// ErrCodeUpstreamUpload indicates the file upload handshake with the AI service failed.
	ErrCodeUpstreamUpload ErrorCode = "UPSTREAM_UPLOAD_FAILED"
	// ErrCodeUpstreamGeneration indicates the AI service rejected a generation request.
	ErrCodeUpstreamGeneration ErrorCode = "UPSTREAM_GENERATION_FAILED"
	// ErrCodeUpstream indicates any other upstream request failed.
	ErrCodeUpstream ErrorCode = "UPSTREAM_REQUEST_FAILED"
	// ErrCodeEmptyResponse indicates the AI service returned no content.
	ErrCodeEmptyResponse ErrorCode = "UPSTREAM_EMPTY_RESPONSE"
	// ErrCodeResponseParse indicates an upstream response could not be decoded.
	ErrCodeResponseParse ErrorCode = "RESPONSE_PARSE_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeConfiguration indicates the service is misconfigured.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// retryableStatus reports whether a client may retry a request that failed
// with status: rate limiting and upstream outages.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}
