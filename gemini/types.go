package gemini

import (
	"encoding/json"

	apperrors "github.com/kbukum/lecturly/errors"
)

// Roles used in conversation contents.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one turn of a generateContent request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a text or file reference inside a Content.
type Part struct {
	Text     string    `json:"text,omitempty"`
	FileData *FileData `json:"fileData,omitempty"`
}

// FileData references a previously uploaded file.
type FileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	SystemInstruction *Content  `json:"system_instruction,omitempty"`
	Contents          []Content `json:"contents"`
}

// TextContent builds a single-part text turn.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// FileContent builds a user turn referencing an uploaded file.
func FileContent(fileURI, mimeType string) Content {
	return Content{Role: RoleUser, Parts: []Part{{FileData: &FileData{MIMEType: mimeType, FileURI: fileURI}}}}
}

// Model describes a model returned by the models listing.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractText returns candidates[0].content.parts[0].text from a
// generateContent response body.
func ExtractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.ResponseParse("generation response", err)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.EmptyResponse()
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].Text == nil {
		return "", apperrors.EmptyResponse()
	}
	return *content.Parts[0].Text, nil
}

type startUploadRequest struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

type uploadResponse struct {
	File struct {
		URI string `json:"uri"`
	} `json:"file"`
}

type listModelsResponse struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken"`
}
