package ingest

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the ingestion category of a file.
type Kind string

const (
	KindDOCX        Kind = "docx"
	KindPDF         Kind = "pdf"
	KindTXT         Kind = "txt"
	KindUnsupported Kind = "unsupported"
)

const (
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypePDF  = "application/pdf"
	MediaTypeTXT  = "text/plain"
)

// MediaType returns the canonical media type for k, or "" when unsupported.
func (k Kind) MediaType() string {
	switch k {
	case KindDOCX:
		return MediaTypeDOCX
	case KindPDF:
		return MediaTypePDF
	case KindTXT:
		return MediaTypeTXT
	default:
		return ""
	}
}

// Classify maps a file to its Kind. The declared type wins and a .docx
// extension always means DOCX. An empty or generic declared type falls back to
// the .pdf or .txt extension, and content is sniffed only when neither helps.
func Classify(name, declaredType string, head []byte) Kind {
	declared := baseMediaType(declaredType)
	if declared == MediaTypeDOCX || strings.EqualFold(filepath.Ext(name), ".docx") {
		return KindDOCX
	}
	switch declared {
	case MediaTypePDF:
		return KindPDF
	case MediaTypeTXT:
		return KindTXT
	case "", "application/octet-stream":
	default:
		return KindUnsupported
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindTXT
	}
	if len(head) == 0 {
		return KindUnsupported
	}
	detected := mimetype.Detect(head)
	switch {
	case detected.Is(MediaTypeDOCX):
		return KindDOCX
	case detected.Is(MediaTypePDF):
		return KindPDF
	case detected.Is(MediaTypeTXT):
		return KindTXT
	default:
		return KindUnsupported
	}
}

func baseMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(value)
	}
	return strings.ToLower(parsed)
}
