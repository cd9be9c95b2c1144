// Package notes turns uploaded lecture audio into markdown notes and
// supports follow-up chat and document export over those notes.
package notes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/httpclient"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/resilience"
	"github.com/kbukum/lecturly/util"
)

// MaxAudioSize is the hard cap on accepted audio, in bytes.
const MaxAudioSize int64 = 20 * 1024 * 1024

// Backend is the subset of the Gemini API the service needs.
type Backend interface {
	Upload(ctx context.Context, data []byte, mimeType, displayName string) (string, error)
	Generate(ctx context.Context, req gemini.GenerateRequest) (string, error)
}

// Audio is one uploaded file.
type Audio struct {
	Filename string
	Data     []byte
}

// Result is the outcome of a conversion. Degraded is set when Notes holds
// FallbackNotes instead of generated text.
type Result struct {
	Notes    string `json:"notes"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Degraded bool   `json:"degraded"`
}

// Service converts audio to notes.
type Service struct {
	backend Backend
	maxSize int64
	metrics *observability.Metrics
	log     *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records conversion outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMaxSize overrides MaxAudioSize.
func WithMaxSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// NewService creates a Service on top of backend.
func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{backend: backend, maxSize: MaxAudioSize, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("notes")
	return s
}

// MaxSize returns the accepted audio size limit in bytes.
func (s *Service) MaxSize() int64 { return s.maxSize }

// Validate checks an upload without contacting the backend: filename first,
// then emptiness, then size.
func (s *Service) Validate(a Audio) error {
	if a.Filename == "" {
		return apperrors.New(apperrors.ErrCodeMissingField, "No filename provided", http.StatusBadRequest).
			WithDetail("field", "file")
	}
	if len(a.Data) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Empty file", http.StatusBadRequest).
			WithDetail("field", "file")
	}
	if int64(len(a.Data)) > s.maxSize {
		return apperrors.PayloadTooLarge(s.maxSize, util.FormatSize(s.maxSize))
	}
	return nil
}

// Convert validates a, uploads it and generates notes from the upload.
//
// Outbound calls are detached from ctx cancellation: a client that goes away
// does not abort an upload or generation already under way. Each call is
// still bounded by its own timeout.
func (s *Service) Convert(ctx context.Context, a Audio) (*Result, error) {
	mimeType := MIMEType(a.Filename)
	log := s.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldFilename, a.Filename,
		logger.FieldMIMEType, mimeType,
		logger.FieldSize, len(a.Data),
	))

	if err := s.Validate(a); err != nil {
		s.metrics.RecordNotes(ctx, observability.OutcomeRejected, mimeType, 0)
		log.Info("audio rejected", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}

	ctx, span := observability.StartSpan(context.WithoutCancel(ctx), observability.SpanNotes,
		attribute.String(observability.AttrMIMEType, mimeType),
		attribute.Int(observability.AttrSizeBytes, len(a.Data)),
	)
	start := time.Now()
	log.Info("processing audio")

	result, err := s.convert(ctx, a, mimeType)
	if result != nil {
		span.SetAttributes(attribute.Bool(observability.AttrDegraded, result.Degraded))
	}
	observability.EndSpan(span, err)

	elapsed := logger.DurationFields("convert", time.Since(start))
	switch {
	case err != nil:
		s.metrics.RecordNotes(ctx, observability.OutcomeFailed, mimeType, len(a.Data))
		log.WithError(err).Error("note generation failed", elapsed)
	case result.Degraded:
		s.metrics.RecordNotes(ctx, observability.OutcomeFallback, mimeType, len(a.Data))
		log.Warn("returning fallback notes", elapsed)
	default:
		s.metrics.RecordNotes(ctx, observability.OutcomeGenerated, mimeType, len(a.Data))
		log.Info("notes generated", elapsed)
	}
	return result, err
}

func (s *Service) convert(ctx context.Context, a Audio, mimeType string) (*Result, error) {
	uri, err := s.backend.Upload(ctx, a.Data, mimeType, a.Filename)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	text, err := s.backend.Generate(ctx, gemini.GenerateRequest{
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: SystemInstruction}}},
		Contents:          []gemini.Content{gemini.FileContent(uri, mimeType)},
	})
	result := &Result{Filename: a.Filename, MIMEType: mimeType}
	if err == nil {
		result.Notes = text
		return result, nil
	}
	if fallback(err) {
		result.Notes = FallbackNotes
		result.Degraded = true
		return result, nil
	}
	return nil, generationError(err)
}

// fallback reports whether a generation failure is served with
// FallbackNotes: overload, rate limiting, any upstream server error, or an
// open circuit.
func fallback(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return true
	}
	status := httpclient.StatusOf(err)
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// generationError maps a non-fallback generation failure to the service
// taxonomy. Upstream statuses are proxied, transport failures are internal.
func generationError(err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
		return apperrors.UpstreamGeneration(httpErr.StatusCode, httpErr.Body)
	}
	appErr := apperrors.Internal(err).WithDetail("operation", "generate")
	if httpclient.IsTimeout(err) {
		appErr.WithDetail("reason", "timeout")
	}
	return appErr
}
