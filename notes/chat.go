package notes

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/validation"
)

// Chat roles accepted from clients.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const chatInstruction = `You are a helpful study assistant. Answer questions about the lecture clearly and concisely, using markdown where it helps. If the answer is not covered by the lecture, say so before answering from general knowledge.`

// ChatMessage is one prior turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest asks a question, optionally about a set of notes. History is
// supplied by the client; nothing is kept between requests.
type ChatRequest struct {
	Notes   string        `json:"notes"`
	History []ChatMessage `json:"history" validate:"max=50,dive"`
	Message string        `json:"message" validate:"required"`
}

// ChatReply is the model's answer.
type ChatReply struct {
	Reply string `json:"reply"`
}

// Chat answers req. Unlike Convert there is no fallback: a canned lecture is
// not an answer, so every upstream failure is reported.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(context.WithoutCancel(ctx), observability.SpanChat,
		attribute.Int("chat.history", len(req.History)),
	)
	text, err := s.backend.Generate(ctx, chatRequest(req))
	if err != nil {
		err = generationError(err)
	}
	observability.EndSpan(span, err)

	log := s.log.WithContext(ctx)
	if err != nil {
		log.WithError(err).Warn("chat failed", logger.Fields("history", len(req.History)))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.EmptyResponse()
	}
	log.Debug("chat answered", logger.Fields("history", len(req.History), "reply_chars", len(text)))
	return &ChatReply{Reply: text}, nil
}

func chatRequest(req ChatRequest) gemini.GenerateRequest {
	instruction := chatInstruction
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		instruction += "\n\nLecture notes:\n\n" + notes
	}

	contents := make([]gemini.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := gemini.RoleUser
		if m.Role == RoleAssistant {
			role = gemini.RoleModel
		}
		contents = append(contents, gemini.TextContent(role, m.Content))
	}
	contents = append(contents, gemini.TextContent(gemini.RoleUser, req.Message))

	return gemini.GenerateRequest{
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: instruction}}},
		Contents:          contents,
	}
}
