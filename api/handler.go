// Package api exposes the notes service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/notes"
	"github.com/kbukum/lecturly/server"
	"github.com/kbukum/lecturly/util"
)

// FormFile is the multipart field carrying the audio upload.
const FormFile = "file"

// ModelLister lists the models available to the configured API key.
type ModelLister interface {
	ListModels(ctx context.Context) ([]gemini.Model, error)
}

// Handler serves the public API routes.
type Handler struct {
	svc    *notes.Service
	models ModelLister
	log    *logger.Logger
}

// NewHandler creates a Handler. models may be nil, in which case GET /models
// is not registered.
func NewHandler(svc *notes.Service, models ModelLister, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, models: models, log: log.WithComponent("api")}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.POST("/audio-to-notes", h.AudioToNotes)
	r.POST("/chat", h.Chat)
	r.POST("/notes/export", h.Export)
	if h.models != nil {
		r.GET("/models", h.Models)
	}
}

var rootInfo = gin.H{
	"name":    "Lecturly Audio Backend",
	"version": "1.0.0",
	"endpoints": gin.H{
		"audio_to_notes": "POST /audio-to-notes - Convert audio to lecture notes",
		"health":         "POST /health - Health check",
		"chat":           "POST /chat - Ask questions about lecture notes",
		"models":         "GET /models - List available models",
		"export":         "POST /notes/export - Download notes as a Word document",
		"info":           "GET /info - Build information",
		"metrics":        "GET /metrics - Prometheus metrics",
	},
}

// Root describes the service.
func (h *Handler) Root(c *gin.Context) {
	server.RespondOK(c, rootInfo)
}

type notesResponse struct {
	Success bool `json:"success"`
	*notes.Result
}

// AudioToNotes converts the uploaded audio file to lecture notes.
func (h *Handler) AudioToNotes(c *gin.Context) {
	audio, err := h.readAudio(c.Request)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	result, err := h.svc.Convert(c.Request.Context(), audio)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, notesResponse{Success: true, Result: result})
}

// readAudio streams the multipart body up to the file part and reads at
// most one byte past the service limit, leaving the size check to
// notes.Service.Validate.
func (h *Handler) readAudio(r *http.Request) (notes.Audio, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return notes.Audio{}, apperrors.MissingField(FormFile).WithCause(err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return notes.Audio{}, apperrors.MissingField(FormFile)
		}
		if err != nil {
			return notes.Audio{}, h.bodyError(err)
		}
		if part.FormName() != FormFile {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, h.svc.MaxSize()+1))
		_ = part.Close()
		if err != nil {
			return notes.Audio{}, h.bodyError(err)
		}
		return notes.Audio{Filename: part.FileName(), Data: data}, nil
	}
}

func (h *Handler) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.PayloadTooLarge(h.svc.MaxSize(), util.FormatSize(h.svc.MaxSize()))
	}
	return apperrors.InvalidInput(FormFile, "malformed multipart body").WithCause(err)
}

// Chat answers a question about a set of notes.
func (h *Handler) Chat(c *gin.Context) {
	var req notes.ChatRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	reply, err := h.svc.Chat(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"success": true, "reply": reply.Reply})
}

type modelInfo struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name,omitempty"`
	Description      string   `json:"description,omitempty"`
	InputTokenLimit  int      `json:"input_token_limit,omitempty"`
	OutputTokenLimit int      `json:"output_token_limit,omitempty"`
	Methods          []string `json:"supported_generation_methods,omitempty"`
}

// Models lists the models available to the configured API key.
func (h *Handler) Models(c *gin.Context) {
	models, err := h.models.ListModels(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	out := make([]modelInfo, 0, len(models))
	for _, m := range models {
		out = append(out, modelInfo{
			Name:             strings.TrimPrefix(m.Name, "models/"),
			DisplayName:      m.DisplayName,
			Description:      m.Description,
			InputTokenLimit:  m.InputTokenLimit,
			OutputTokenLimit: m.OutputTokenLimit,
			Methods:          m.SupportedGenerationMethods,
		})
	}
	server.RespondOK(c, gin.H{"success": true, "models": out})
}

// Export renders notes as a .docx attachment.
func (h *Handler) Export(c *gin.Context) {
	var req notes.ExportRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	data, err := h.svc.Export(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Debug("notes exported", logger.Fields(logger.FieldSize, len(data)))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(req.Title)))
	c.Data(http.StatusOK, notes.DocxMIMEType, data)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// exportFilename derives a download name from title, e.g. "Week 3: Graphs"
// becomes "Week-3-Graphs.docx".
func exportFilename(title string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(title, "-"), "-.")
	if name == "" {
		name = "lecture-notes"
	}
	return name + ".docx"
}

// bindJSON decodes the request body into v. Field validation is left to the
// service.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.PayloadTooLarge(tooLarge.Limit, util.FormatSize(tooLarge.Limit))
		}
		return apperrors.Validation("Request body must be valid JSON").WithCause(err)
	}
	return nil
}
