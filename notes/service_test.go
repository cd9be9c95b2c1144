package notes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/httpclient"
	"github.com/kbukum/lecturly/resilience"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	uploadURI string
	uploadErr error
	genText   string
	genErr    error

	uploads   int
	generates int
	lastReq   gemini.GenerateRequest
	lastMIME  string
	uploadCtx context.Context
}

func (f *fakeBackend) Upload(ctx context.Context, data []byte, mimeType, displayName string) (string, error) {
	f.uploads++
	f.lastMIME = mimeType
	f.uploadCtx = ctx
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadURI, nil
}

func (f *fakeBackend) Generate(_ context.Context, req gemini.GenerateRequest) (string, error) {
	f.generates++
	f.lastReq = req
	return f.genText, f.genErr
}

func newFake() *fakeBackend {
	return &fakeBackend{uploadURI: "https://files.example/abc", genText: "# Generated"}
}

func TestMIMEType_Table(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"lecture.mp3", "audio/mpeg"},
		{"lecture.WAV", "audio/wav"},
		{"a.ogg", "audio/ogg"},
		{"a.Flac", "audio/flac"},
		{"a.m4a", "audio/mp4"},
		{"a.aac", "audio/aac"},
		{"a.aiff", "audio/aiff"},
		{"notes.txt", DefaultMIMEType},
		{"noext", DefaultMIMEType},
		{"archive.tar.wav", "audio/wav"},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			if got := MIMEType(tc.filename); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
	for _, ext := range SupportedExtensions() {
		if _, ok := mimeTypes[ext]; !ok {
			t.Errorf("extension %s missing from table", ext)
		}
	}
}

func TestService_Convert_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		audio  Audio
		status int
		code   apperrors.ErrorCode
	}{
		{"no filename", Audio{Data: []byte("x")}, http.StatusBadRequest, apperrors.ErrCodeMissingField},
		{"no filename and empty", Audio{}, http.StatusBadRequest, apperrors.ErrCodeMissingField},
		{"empty file", Audio{Filename: "a.mp3"}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"too large", Audio{Filename: "a.mp3", Data: make([]byte, MaxAudioSize+1)}, http.StatusRequestEntityTooLarge, apperrors.ErrCodePayloadTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFake()
			_, err := NewService(backend).Convert(context.Background(), tc.audio)
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.HTTPStatus != tc.status || appErr.Code != tc.code {
				t.Errorf("expected %d/%s, got %d/%s", tc.status, tc.code, appErr.HTTPStatus, appErr.Code)
			}
			if backend.uploads != 0 || backend.generates != 0 {
				t.Error("rejected audio must not reach the backend")
			}
		})
	}
}

func TestService_Convert_ExactlyAtLimit(t *testing.T) {
	backend := newFake()
	_, err := NewService(backend).Convert(context.Background(), Audio{Filename: "a.mp3", Data: make([]byte, MaxAudioSize)})
	if err != nil {
		t.Fatalf("expected audio at the limit to be accepted, got %v", err)
	}
}

func TestService_Convert_TooLargeMessage(t *testing.T) {
	_, err := NewService(newFake()).Convert(context.Background(), Audio{Filename: "a.mp3", Data: make([]byte, MaxAudioSize+1)})
	appErr, _ := apperrors.AsAppError(err)
	if appErr == nil || appErr.Message != "File too large (max 20MB)" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestService_Convert_Success(t *testing.T) {
	backend := newFake()
	backend.genText = "# Lecture\n\n- point"

	res, err := NewService(backend).Convert(context.Background(), Audio{Filename: "talk.FLAC", Data: []byte("audio")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Notes != backend.genText || res.Degraded {
		t.Errorf("expected generated notes verbatim, got %+v", res)
	}
	if res.MIMEType != "audio/flac" || res.Filename != "talk.FLAC" {
		t.Errorf("unexpected result metadata %+v", res)
	}
	if backend.lastMIME != "audio/flac" {
		t.Errorf("expected upload with audio/flac, got %s", backend.lastMIME)
	}

	req := backend.lastReq
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != SystemInstruction {
		t.Error("expected the notes system instruction")
	}
	fd := req.Contents[0].Parts[0].FileData
	if req.Contents[0].Role != gemini.RoleUser || fd == nil || fd.FileURI != backend.uploadURI || fd.MIMEType != "audio/flac" {
		t.Errorf("unexpected contents %+v", req.Contents)
	}
}

func TestService_Convert_DetachedFromCancellation(t *testing.T) {
	backend := newFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewService(backend).Convert(ctx, Audio{Filename: "a.mp3", Data: []byte("x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.uploadCtx.Err() != nil {
		t.Error("outbound calls must not observe client cancellation")
	}
}

func TestService_Convert_GenerationPolicy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		degraded bool
		status   int
	}{
		{"503 overloaded", httpclient.NewStatusError(503, "", []byte("overloaded")), true, 0},
		{"429 rate limited", httpclient.NewStatusError(429, "", nil), true, 0},
		{"500 server error", httpclient.NewStatusError(500, "", nil), true, 0},
		{"504 gateway", httpclient.NewStatusError(504, "", nil), true, 0},
		{"circuit open", resilience.ErrCircuitOpen, true, 0},
		{"404 proxied", httpclient.NewStatusError(404, "", []byte("model not found")), false, 404},
		{"400 proxied", httpclient.NewStatusError(400, "", nil), false, 400},
		{"302 unexpected", httpclient.NewStatusError(302, "", nil), false, http.StatusBadGateway},
		{"timeout internal", httpclient.NewTimeoutError(errors.New("deadline")), false, 500},
		{"connection internal", httpclient.NewConnectionError(errors.New("refused")), false, 500},
		{"empty response", apperrors.EmptyResponse(), false, 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFake()
			backend.genErr = tc.err

			res, err := NewService(backend).Convert(context.Background(), Audio{Filename: "a.mp3", Data: []byte("x")})
			if tc.degraded {
				if err != nil {
					t.Fatalf("expected fallback, got %v", err)
				}
				if res.Notes != FallbackNotes || !res.Degraded {
					t.Errorf("expected exact fallback notes with degraded set")
				}
				return
			}
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, appErr.HTTPStatus)
			}
		})
	}
}

func TestService_Convert_UploadFailureSkipsGenerate(t *testing.T) {
	backend := newFake()
	backend.uploadErr = apperrors.UpstreamUpload("Upload initialization", 0, nil)

	_, err := NewService(backend).Convert(context.Background(), Audio{Filename: "a.mp3", Data: []byte("x")})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeUpstreamUpload {
		t.Fatalf("expected upload error, got %v", err)
	}
	if backend.generates != 0 {
		t.Error("generate must not run after a failed upload")
	}
}

func TestService_Convert_UploadPlainErrorIsInternal(t *testing.T) {
	backend := newFake()
	backend.uploadErr = errors.New("boom")

	_, err := NewService(backend).Convert(context.Background(), Audio{Filename: "a.mp3", Data: []byte("x")})
	appErr, _ := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.ErrCodeInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestService_Convert_GenerateTimeoutIsMarked(t *testing.T) {
	tests := []struct {
		name    string
		genErr  error
		timeout bool
	}{
		{"timeout", httpclient.NewTimeoutError(context.DeadlineExceeded), true},
		{"connection reset", errors.New("reset"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFake()
			backend.genErr = tc.genErr

			_, err := NewService(backend).Convert(context.Background(), Audio{Filename: "a.mp3", Data: []byte("x")})
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code != apperrors.ErrCodeInternal {
				t.Fatalf("expected internal error, got %v", err)
			}
			if appErr.Details["operation"] != "generate" {
				t.Errorf("expected generate operation, got %v", appErr.Details["operation"])
			}
			if (appErr.Details["reason"] == "timeout") != tc.timeout {
				t.Errorf("expected timeout marker %v, got details %v", tc.timeout, appErr.Details)
			}
		})
	}
}

func TestFallbackNotes_Content(t *testing.T) {
	if !strings.HasPrefix(FallbackNotes, "# Lecture Notes: Introduction to Data Structures") {
		t.Error("unexpected fallback heading")
	}
	if !strings.Contains(FallbackNotes, "3. How do you choose the right data structure for your problem?") {
		t.Error("fallback notes truncated")
	}
}
