package httpclient

import (
	"net/http"
	"time"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is appended to the client's BaseURL. Absolute URLs are used as-is.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body accepts io.Reader, []byte, string, or any JSON-encodable value.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
	// Timeout overrides the client-level timeout for this request.
	Timeout time.Duration
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Header returns the first value of a response header, matched case-insensitively.
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
