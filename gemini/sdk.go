package gemini

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/httpclient"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/resilience"
)

// SDKClient is the genai SDK backend. It exposes the same operations as
// Client and maps SDK failures onto *httpclient.Error.
type SDKClient struct {
	cfg     Config
	client  *genai.Client
	cb      *resilience.CircuitBreaker
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewSDKClient creates a genai client for the Gemini API backend.
func NewSDKClient(ctx context.Context, cfg Config, metrics *observability.Metrics, log *logger.Logger) (*SDKClient, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, apperrors.Configuration("create genai client").WithCause(err)
	}

	s := &SDKClient{cfg: cfg, client: client, metrics: metrics, log: log.WithComponent("gemini.sdk")}
	if bc := cfg.breaker(); bc != nil {
		bc.IsFailure = httpclient.IsRetryable
		s.cb = resilience.NewCircuitBreaker(*bc)
	}
	return s, nil
}

// Model returns the configured generation model.
func (s *SDKClient) Model() string { return s.cfg.Model }

// Upload stores data with the Files API and returns its URI.
func (s *SDKClient) Upload(ctx context.Context, data []byte, mimeType, displayName string) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUpload,
		attribute.String(observability.AttrMIMEType, mimeType),
		attribute.Int(observability.AttrSizeBytes, len(data)),
	)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.InitTimeout+s.cfg.TransferTimeout)
	defer cancel()

	start := time.Now()
	file, err := s.client.Files.Upload(callCtx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	err = sdkError(callCtx, err)
	s.record(ctx, "upload", err, time.Since(start))

	var uri string
	switch {
	case err != nil:
		var httpErr *httpclient.Error
		if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
			err = apperrors.UpstreamUpload(stepTransfer, httpErr.StatusCode, httpErr.Body)
		} else {
			err = apperrors.Internal(err).WithDetail("operation", stepTransfer)
		}
	case file == nil || file.URI == "":
		err = apperrors.UpstreamUpload(stepTransfer, 0, nil).WithDetail("reason", "response has no file uri")
	default:
		uri = file.URI
	}
	observability.EndSpan(span, err)
	return uri, err
}

// Generate calls GenerateContent and returns the first candidate's first
// text part.
func (s *SDKClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGenerate,
		attribute.String(observability.AttrModel, s.cfg.Model),
	)

	var text string
	call := func() error {
		var err error
		text, err = s.generate(ctx, req)
		return err
	}
	var err error
	if s.cb != nil {
		err = s.cb.Execute(call)
	} else {
		err = call()
	}

	if status := httpclient.StatusOf(err); status != 0 {
		span.SetAttributes(attribute.Int(observability.AttrUpstreamStatus, status))
	}
	observability.EndSpan(span, err)
	return text, err
}

func (s *SDKClient) generate(ctx context.Context, req GenerateRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	var config *genai.GenerateContentConfig
	if req.SystemInstruction != nil {
		config = &genai.GenerateContentConfig{SystemInstruction: toGenai(*req.SystemInstruction)}
	}
	contents := make([]*genai.Content, 0, len(req.Contents))
	for _, c := range req.Contents {
		contents = append(contents, toGenai(c))
	}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(callCtx, s.cfg.Model, contents, config)
	err = sdkError(callCtx, err)
	s.record(ctx, "generate", err, time.Since(start))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

// firstText returns the text of the first part of the first candidate. The
// SDK decodes an absent text field as "", so empty text counts as missing.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", apperrors.EmptyResponse()
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil || content.Parts[0].Text == "" {
		return "", apperrors.EmptyResponse()
	}
	return content.Parts[0].Text, nil
}

// ListModels returns every model visible to the API key.
func (s *SDKClient) ListModels(ctx context.Context) ([]Model, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanListModels)
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ListTimeout)
	defer cancel()

	start := time.Now()
	var (
		models []Model
		err    error
	)
	for m, iterErr := range s.client.Models.All(callCtx) {
		if iterErr != nil {
			err = sdkError(callCtx, iterErr)
			break
		}
		models = append(models, Model{
			Name:                       m.Name,
			DisplayName:                m.DisplayName,
			Description:                m.Description,
			InputTokenLimit:            int(m.InputTokenLimit),
			OutputTokenLimit:           int(m.OutputTokenLimit),
			SupportedGenerationMethods: m.SupportedActions,
		})
	}
	s.record(ctx, "models.list", err, time.Since(start))

	if err != nil {
		var httpErr *httpclient.Error
		if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
			err = apperrors.Upstream("List models", httpErr.StatusCode, httpErr.Body)
		} else {
			err = apperrors.Internal(err).WithDetail("operation", "list models")
		}
	}
	observability.EndSpan(span, err)
	return models, err
}

func (s *SDKClient) record(ctx context.Context, op string, err error, d time.Duration) {
	status := httpclient.StatusOf(err)
	if err == nil {
		status = 200
	}
	s.metrics.RecordUpstream(ctx, op, status, d)

	fields := logger.Fields(logger.FieldOperation, op, logger.FieldUpstream, status, logger.FieldDuration, d.Milliseconds())
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("gemini call failed", fields)
		return
	}
	s.log.WithContext(ctx).Debug("gemini call succeeded", fields)
}

func toGenai(c Content) *genai.Content {
	out := &genai.Content{Role: c.Role}
	for _, p := range c.Parts {
		part := &genai.Part{Text: p.Text}
		if p.FileData != nil {
			part.FileData = &genai.FileData{FileURI: p.FileData.FileURI, MIMEType: p.FileData.MIMEType}
		}
		out.Parts = append(out.Parts, part)
	}
	return out
}

// sdkError converts a genai error into *httpclient.Error so the generation
// policy sees the same shapes from both backends.
func sdkError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return httpclient.NewStatusError(apiErr.Code, apiErr.Message, []byte(apiErr.Message))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return httpclient.NewStatusError(apiErrPtr.Code, apiErrPtr.Message, []byte(apiErrPtr.Message))
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return httpclient.NewTimeoutError(err)
	}
	return httpclient.NewConnectionError(err)
}
