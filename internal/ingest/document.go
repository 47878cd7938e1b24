package ingest

import (
	"encoding/base64"
	"strings"
)

// Mode tells the notes stage which entry path an Input takes.
type Mode string

const (
	// ModeText sets NotesText directly (pasted text or extracted DOCX).
	ModeText Mode = "text"
	// ModeFile asks the model to produce notes from a Document.
	ModeFile Mode = "file"
)

// Document is an uploaded PDF or TXT file held only until notes exist.
type Document struct {
	Name      string
	MediaType string
	Kind      Kind
	Data      []byte
}

// DataURI encodes the document as data:<media type>;base64,<payload>.
func (d *Document) DataURI() string {
	var b strings.Builder
	encoded := base64.StdEncoding.EncodeToString(d.Data)
	b.Grow(len(d.MediaType) + len(encoded) + 13)
	b.WriteString("data:")
	b.WriteString(d.MediaType)
	b.WriteString(";base64,")
	b.WriteString(encoded)
	return b.String()
}

// Input is the result of ingestion.
type Input struct {
	Mode     Mode
	Text     string
	Document *Document
	// Source names where the input came from (file name or "pasted text").
	Source string
}

// PastedSource is the Input.Source of pasted text.
const PastedSource = "pasted text"

// TextInput wraps pasted text. Empty text is valid.
func TextInput(text string) Input {
	return Input{Mode: ModeText, Text: text, Source: PastedSource}
}
