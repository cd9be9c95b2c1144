package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/lecturly/resilience"
)

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/m:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("X-Goog-Upload-URL", "https://upload.example/session")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := newClient(t, Config{BaseURL: srv.URL + "/"})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1beta/models/m:generateContent",
		Body:   map[string]string{"name": "lecture"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "lecture") {
		t.Errorf("expected echoed body, got %s", resp.Body)
	}
	if got := resp.Header("x-goog-upload-url"); got != "https://upload.example/session" {
		t.Errorf("expected case-insensitive header lookup, got %q", got)
	}
}

func TestClient_Do_RawBytesAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if string(data) != "RIFFdata" {
			t.Errorf("unexpected body %q", data)
		}
		if r.ContentLength != 8 {
			t.Errorf("expected content length 8, got %d", r.ContentLength)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("expected explicit content type, got %q", got)
		}
		if got := r.Header.Get("X-Default"); got != "yes" {
			t.Errorf("expected default header, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, Config{Headers: map[string]string{"X-Default": "yes"}})
	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    srv.URL + "/session",
		Headers: map[string]string{"Content-Type": "audio/wav"},
		Body:    []byte("RIFFdata"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Auth(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
	}))
	defer srv.Close()

	c := newClient(t, Config{BaseURL: srv.URL, Auth: APIKeyAuthQuery("k123", "key")})

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"client key", Request{Method: http.MethodGet, Path: "/v1beta/models"}, "key=k123"},
		{"merged query", Request{Method: http.MethodGet, Path: "/x", Query: map[string]string{"pageSize": "50"}}, "key=k123&pageSize=50"},
		{"request override", Request{Method: http.MethodPost, Path: srv.URL + "/session?upload_id=abc", Auth: NoAuth()}, "upload_id=abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Do(context.Background(), tc.req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := gotQuery.Load().(string); got != tc.want {
				t.Errorf("expected query %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClient_Do_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{http.StatusNotFound, ErrCodeClient, false},
		{http.StatusBadRequest, ErrCodeClient, false},
		{http.StatusTooManyRequests, ErrCodeRateLimit, true},
		{http.StatusServiceUnavailable, ErrCodeServer, true},
		{http.StatusInternalServerError, ErrCodeServer, true},
		{http.StatusNotModified, ErrCodeUnexpected, false},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"x"}`))
			}))
			defer srv.Close()

			resp, err := newClient(t, Config{BaseURL: srv.URL}).Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
			if resp == nil || resp.StatusCode != tc.status {
				t.Fatalf("expected response with status %d, got %+v", tc.status, resp)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if e.Code != tc.code || e.Retryable != tc.retryable {
				t.Errorf("expected code=%s retryable=%v, got code=%s retryable=%v", tc.code, tc.retryable, e.Code, e.Retryable)
			}
			if tc.status != http.StatusNotModified && string(e.Body) != `{"error":"x"}` {
				t.Errorf("expected body to be kept, got %q", e.Body)
			}
			if StatusOf(err) != tc.status {
				t.Errorf("StatusOf = %d, want %d", StatusOf(err), tc.status)
			}
		})
	}
}

func TestClient_Do_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(t, Config{BaseURL: srv.URL, Timeout: time.Minute})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/", Timeout: 50 * time.Millisecond})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if StatusOf(err) != 0 {
		t.Errorf("expected transport error without status, got %v", err)
	}
}

func TestClient_Do_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, Config{BaseURL: url}).Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestClient_Do_InvalidBody(t *testing.T) {
	c := newClient(t, Config{BaseURL: "http://localhost"})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: make(chan int)})
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeRequest {
		t.Fatalf("expected request error, got %v", err)
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := newClient(t, Config{
		BaseURL:        srv.URL,
		CircuitBreaker: &resilience.CircuitBreakerConfig{Name: "test", MaxFailures: 2, Timeout: time.Hour},
	})
	do := func() error {
		_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
		return err
	}

	for i := 0; i < 3; i++ {
		if err := do(); StatusOf(err) != http.StatusNotFound {
			t.Fatalf("expected client errors not to trip the breaker, got %v", err)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("expected every 404 to reach the server, got %d calls", calls.Load())
	}

	status.Store(http.StatusServiceUnavailable)
	_ = do()
	_ = do()

	before := calls.Load()
	if err := do(); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if calls.Load() != before {
		t.Error("expected no upstream call while open")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected zero timeout to fail validation")
	}
}

func TestAuth_Apply(t *testing.T) {
	tests := []struct {
		name   string
		auth   *AuthConfig
		header string
		want   string
	}{
		{"named header", &AuthConfig{Type: AuthAPIKey, Key: "k", Name: "x-goog-api-key"}, "X-Goog-Api-Key", "k"},
		{"default header", &AuthConfig{Type: AuthAPIKey, Key: "k"}, "X-API-Key", "k"},
		{"query key not in header", APIKeyAuthQuery("k", "key"), "X-API-Key", ""},
		{"none", NoAuth(), "Authorization", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			tc.auth.apply(req)
			if got := req.Header.Get(tc.header); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorCode_String(t *testing.T) {
	if ErrCodeRateLimit.String() != "rate_limit" || ErrorCode(99).String() != "unknown" {
		t.Error("unexpected error code names")
	}
	e := NewStatusError(404, "File upload failed", []byte("x"))
	if e.Message != "File upload failed" || e.Code != ErrCodeClient {
		t.Errorf("unexpected status error %+v", e)
	}
	if !strings.Contains(e.Error(), "HTTP 404") {
		t.Errorf("expected status in message, got %q", e.Error())
	}
}
