package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unioffice/v2/common/license"
	"github.com/unidoc/unioffice/v2/document"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	licenseOnce sync.Once
	licenseErr  error
)

// ApplyLicense registers a unioffice metered key once per process. An empty
// key leaves the library unlicensed.
func ApplyLicense(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	licenseOnce.Do(func() {
		licenseErr = license.SetMeteredKey(key)
	})
	return licenseErr
}

// ExtractDOCXText returns the raw text of a DOCX file: body paragraphs then
// table cells, separated by blank lines, NFC normalized.
func ExtractDOCXText(data []byte, licenseKey string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if err := ApplyLicense(licenseKey); err != nil {
		return "", fmt.Errorf("unioffice license: %w", err)
	}
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	blocks := make([]string, 0, 64)
	for _, p := range doc.Paragraphs() {
		if text := paragraphText(p); text != "" {
			blocks = append(blocks, text)
		}
	}
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			cells := make([]string, 0, 4)
			for _, cell := range row.Cells() {
				var parts []string
				for _, p := range cell.Paragraphs() {
					if text := paragraphText(p); text != "" {
						parts = append(parts, text)
					}
				}
				if len(parts) > 0 {
					cells = append(cells, strings.Join(parts, " "))
				}
			}
			if len(cells) > 0 {
				blocks = append(blocks, strings.Join(cells, " | "))
			}
		}
	}
	return norm.NFC.String(strings.Join(blocks, "\n\n")), nil
}

func paragraphText(p document.Paragraph) string {
	var b strings.Builder
	for _, run := range p.Runs() {
		b.WriteString(run.Text())
	}
	return strings.TrimSpace(b.String())
}

// DocumentText extracts text from a PDF or TXT document locally.
func DocumentText(doc *Document) (string, error) {
	if doc == nil {
		return "", errors.New("no document")
	}
	switch doc.Kind {
	case KindPDF:
		return extractPDFText(doc.Data)
	case KindTXT:
		return decodeText(doc.Data)
	default:
		return "", fmt.Errorf("local extraction is not available for %s", doc.Kind)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return norm.NFC.String(strings.TrimSpace(buf.String())), nil
}

// decodeText honours a UTF-8/UTF-16 BOM and falls back to Windows-1252 for
// bytes that are not valid UTF-8.
func decodeText(data []byte) (string, error) {
	var decoder transform.Transformer
	switch {
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}), bytes.HasPrefix(data, []byte{0xFF, 0xFE}), utf8.Valid(data):
		decoder = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	default:
		decoder = charmap.Windows1252.NewDecoder()
	}
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return norm.NFC.String(string(text)), nil
}
