package notes

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	apperrors "github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/validation"
)

// DocxMIMEType is the content type of exported documents.
const DocxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	fontName = "Calibri"
	fontSize = 11
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// ExportRequest holds notes to render as a document.
type ExportRequest struct {
	Title string `json:"title" validate:"max=200"`
	Notes string `json:"notes" validate:"required"`
}

// Export renders markdown notes to a .docx document in memory.
func (s *Service) Export(ctx context.Context, req ExportRequest) ([]byte, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	_, span := observability.StartSpan(ctx, observability.SpanExport)
	data, err := renderDocx(req.Title, req.Notes)
	observability.EndSpan(span, err)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("export failed")
		return nil, apperrors.Internal(err).WithDetail("operation", "export")
	}
	return data, nil
}

func renderDocx(title, markdown string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title != "" {
		addStyledRun(doc.AddParagraph(""), title, 18)
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		switch {
		case reHeading.MatchString(trimmed):
			m := reHeading.FindStringSubmatch(trimmed)
			addStyledRun(doc.AddParagraph(""), m[2], headingSize(len(m[1])))
		case reBullet.MatchString(trimmed):
			m := reBullet.FindStringSubmatch(trimmed)
			indent := strings.Repeat("    ", indentLevel(line))
			addRichText(doc.AddParagraph(""), indent+"• "+m[1])
		case reNumbered.MatchString(trimmed):
			addRichText(doc.AddParagraph(""), trimmed)
		default:
			addRichText(doc.AddParagraph(""), trimmed)
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// indentLevel counts nesting from leading spaces, two per level.
func indentLevel(line string) int {
	return (len(line) - len(strings.TrimLeft(line, " "))) / 2
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 14
	case 3:
		return 12
	default:
		return fontSize
	}
}

func addStyledRun(p *docx.Paragraph, text string, size uint64) {
	p.AddText(cleanInline(text)).Font(fontName).Size(size).Color("000000").Bold(true)
}

// addRichText writes text as runs, rendering **bold** spans in bold.
func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanInline(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}
