// Package gemini talks to the Gemini API: resumable file upload,
// generateContent and model listing.
//
// Two backends are provided. Client speaks the REST protocol directly and
// SDKClient goes through google.golang.org/genai. Both report rejected
// generation calls as *httpclient.Error so callers can branch on the
// upstream status regardless of backend.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/httpclient"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/observability"
)

// Upload steps, as reported in errors and metrics.
const (
	stepStart    = "Upload initialization"
	stepTransfer = "File upload"
)

// Client is the REST backend.
type Client struct {
	cfg     Config
	files   *httpclient.Client
	models  *httpclient.Client
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewClient creates a REST client. Generation calls go through the circuit
// breaker when one is configured; uploads never do.
func NewClient(cfg Config, metrics *observability.Metrics, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	auth := httpclient.APIKeyAuthQuery(cfg.APIKey, "key")

	files, err := httpclient.New(httpclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.TransferTimeout, Auth: auth})
	if err != nil {
		return nil, err
	}
	models, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.GenerateTimeout,
		Auth:           auth,
		CircuitBreaker: cfg.breaker(),
	})
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, files: files, models: models, metrics: metrics, log: log.WithComponent("gemini")}, nil
}

// Model returns the configured generation model.
func (c *Client) Model() string { return c.cfg.Model }

// Upload sends data through the two-step resumable protocol and returns the
// remote file URI. Every failure is terminal.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType, displayName string) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUpload,
		attribute.String(observability.AttrMIMEType, mimeType),
		attribute.Int(observability.AttrSizeBytes, len(data)),
	)
	uri, err := c.upload(ctx, data, mimeType, displayName)
	observability.EndSpan(span, err)
	return uri, err
}

func (c *Client) upload(ctx context.Context, data []byte, mimeType, displayName string) (string, error) {
	var body startUploadRequest
	body.File.DisplayName = displayName

	startCtx, span := observability.StartSpan(ctx, observability.SpanUploadStart)
	resp, err := c.call(startCtx, c.files, "upload.start", httpclient.Request{
		Method: http.MethodPost,
		Path:   "/upload/v1beta/files",
		Headers: map[string]string{
			"X-Goog-Upload-Protocol":              "resumable",
			"X-Goog-Upload-Command":               "start",
			"X-Goog-Upload-Header-Content-Type":   mimeType,
			"X-Goog-Upload-Header-Content-Length": strconv.Itoa(len(data)),
			"Content-Type":                        "application/json",
		},
		Body:    body,
		Timeout: c.cfg.InitTimeout,
	})
	observability.EndSpan(span, err)
	if err != nil {
		return "", uploadError(stepStart, err)
	}
	sessionURL := resp.Header("X-Goog-Upload-URL")
	if sessionURL == "" {
		return "", apperrors.UpstreamUpload(stepStart, 0, nil).
			WithDetail("reason", "response is missing the X-Goog-Upload-URL header")
	}

	// The session URL is pre-authorized and must not carry the API key.
	sendCtx, span := observability.StartSpan(ctx, observability.SpanUploadSend)
	resp, err = c.call(sendCtx, c.files, "upload.transfer", httpclient.Request{
		Method: http.MethodPost,
		Path:   sessionURL,
		Headers: map[string]string{
			"X-Goog-Upload-Command": "upload, finalize",
			"X-Goog-Upload-Offset":  "0",
			"Content-Type":          mimeType,
		},
		Body:    data,
		Auth:    httpclient.NoAuth(),
		Timeout: c.cfg.TransferTimeout,
	})
	observability.EndSpan(span, err)
	if err != nil {
		return "", uploadError(stepTransfer, err)
	}

	var out uploadResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", apperrors.ResponseParse("upload response", err)
	}
	if out.File.URI == "" {
		return "", apperrors.UpstreamUpload(stepTransfer, 0, nil).
			WithDetail("reason", "response has no file.uri")
	}
	return out.File.URI, nil
}

// Generate calls generateContent with the configured model and returns the
// first candidate's text. Non-2xx responses are returned as *httpclient.Error,
// and resilience.ErrCircuitOpen is returned while the breaker is open.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGenerate,
		attribute.String(observability.AttrModel, c.cfg.Model),
	)
	text, err := c.generate(ctx, req)
	if status := httpclient.StatusOf(err); status != 0 {
		span.SetAttributes(attribute.Int(observability.AttrUpstreamStatus, status))
	}
	observability.EndSpan(span, err)
	return text, err
}

func (c *Client) generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := c.call(ctx, c.models, "generate", httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/v1beta/models/" + c.cfg.Model + ":generateContent",
		Body:    req,
		Timeout: c.cfg.GenerateTimeout,
	})
	if err != nil {
		return "", err
	}
	return ExtractText(resp.Body)
}

// ListModels returns every model visible to the API key, following pagination.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanListModels)
	var (
		models []Model
		err    error
		token  string
	)
	for {
		var page listModelsResponse
		page, err = c.listPage(ctx, token)
		if err != nil {
			break
		}
		models = append(models, page.Models...)
		if token = page.NextPageToken; token == "" {
			break
		}
	}
	observability.EndSpan(span, err)
	return models, err
}

func (c *Client) listPage(ctx context.Context, token string) (listModelsResponse, error) {
	query := map[string]string{"pageSize": "100"}
	if token != "" {
		query["pageToken"] = token
	}
	var page listModelsResponse
	resp, err := c.call(ctx, c.files, "models.list", httpclient.Request{
		Method:  http.MethodGet,
		Path:    "/v1beta/models",
		Query:   query,
		Timeout: c.cfg.ListTimeout,
	})
	if err != nil {
		var httpErr *httpclient.Error
		if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
			return page, apperrors.Upstream("List models", httpErr.StatusCode, httpErr.Body)
		}
		return page, apperrors.Internal(err).WithDetail("operation", "list models")
	}
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return page, apperrors.ResponseParse("models response", err)
	}
	return page, nil
}

// call executes req and records its status and latency.
func (c *Client) call(ctx context.Context, hc *httpclient.Client, op string, req httpclient.Request) (*httpclient.Response, error) {
	start := time.Now()
	resp, err := hc.Do(ctx, req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	elapsed := time.Since(start)
	c.metrics.RecordUpstream(ctx, op, status, elapsed)

	fields := logger.Fields(logger.FieldOperation, op, logger.FieldUpstream, status, logger.FieldDuration, elapsed.Milliseconds())
	log := c.log.WithContext(ctx)
	switch {
	case err == nil:
		log.Debug("gemini call succeeded", fields)
	case resp != nil && !resp.IsSuccess():
		fields["upstream_body"] = apperrors.Truncate(string(resp.Body), 512)
		log.Warn("gemini call rejected", fields)
	default:
		log.WithError(err).Warn("gemini call failed", fields)
	}
	return resp, err
}

// uploadError maps a failed upload step to the service taxonomy: upstream
// statuses are proxied, transport failures become internal errors.
func uploadError(step string, err error) error {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
		return apperrors.UpstreamUpload(step, httpErr.StatusCode, httpErr.Body)
	}
	appErr := apperrors.Internal(err).WithDetail("operation", step)
	if httpclient.IsTimeout(err) {
		appErr.WithDetail("reason", "timeout")
	}
	return appErr
}
