package notes

import (
	"path/filepath"
	"strings"
)

// DefaultMIMEType is used for extensions outside the supported table.
const DefaultMIMEType = "audio/mpeg"

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".aiff": "audio/aiff",
}

// MIMEType maps a filename to an audio MIME type by its extension,
// case-insensitively. Unknown or missing extensions map to DefaultMIMEType.
func MIMEType(filename string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return DefaultMIMEType
}

// SupportedExtensions lists the extensions with a dedicated MIME type.
func SupportedExtensions() []string {
	return []string{".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac", ".aiff"}
}
