// Package export writes notes or a summary to a file format for download.
package export

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/v2/document"

	"notewise/internal/ingest"
	"notewise/internal/notes"
	"notewise/internal/services"
	"notewise/internal/textutil"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(value string) (Format, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
	switch v {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", services.Wrap(services.ErrValidation, "export", "parse format",
		fmt.Sprintf("Unsupported export format %q. Use txt, md, html, or docx.", value), nil)
}

// FormatForPath infers the format from a file name's extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return ingest.MediaTypeDOCX
	default:
		return "text/plain; charset=utf-8"
	}
}

// Document is what gets exported. Markdown is true for notes, whose
// headings and lists are rendered as structure.
type Document struct {
	Title    string
	Body     string
	Markdown bool
}

// Options carries format-specific settings.
type Options struct {
	LicenseKey string
}

// Write renders doc in the given format to w.
func Write(w io.Writer, format Format, doc Document, opts Options) error {
	if strings.TrimSpace(doc.Body) == "" {
		return services.Wrap(services.ErrPrecondition, "export", "write",
			"Nothing to export yet.", nil)
	}
	var err error
	switch format {
	case FormatText:
		err = writeText(w, doc)
	case FormatMarkdown:
		err = writeMarkdown(w, doc)
	case FormatHTML:
		err = writeHTML(w, doc)
	case FormatDOCX:
		err = writeDOCX(w, doc, opts)
	default:
		_, err = ParseFormat(string(format))
		return err
	}
	if err != nil {
		return services.Wrap(services.ErrGeneration, "export", "write "+string(format),
			"Could not export the document", err)
	}
	return nil
}

// FileName suggests a download name such as "lecture_3-notes.docx". Pasted
// text and a blank source yield "notes.docx"; a blank what yields "notewise".
func FileName(source, what string, format Format) string {
	base := textutil.SanitizeFileName(strings.ToLower(what))
	if base == "" {
		base = "notewise"
	}
	if source != ingest.PastedSource {
		if stem := textutil.Stem(source); stem != "" {
			base = stem + "-" + base
		}
	}
	return base + "." + string(format)
}

func writeText(w io.Writer, doc Document) error {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	for i, blk := range splitBlocks(doc) {
		if i > 0 && (blk.level > 0 || !blk.bullet) {
			b.WriteString("\n")
		}
		switch {
		case blk.level > 0:
			b.WriteString(strings.ToUpper(blk.text))
		case blk.bullet:
			b.WriteString("- " + blk.text)
		default:
			b.WriteString(blk.text)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdown(w io.Writer, doc Document) error {
	var b strings.Builder
	if doc.Title != "" && !notes.HasHeadings(doc.Body) {
		b.WriteString("# ")
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(doc.Body))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

func writeHTML(w io.Writer, doc Document) error {
	source := doc.Body
	if !doc.Markdown {
		source = escapeParagraphs(source)
	}
	body, err := notes.HTML(source)
	if err != nil {
		return err
	}
	title := doc.Title
	if title == "" {
		title = "NoteWise"
	}
	_, err = fmt.Fprintf(w, htmlTemplate, htmlEscaper.Replace(title), body)
	return err
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// escapeParagraphs keeps plain summaries from being read as markdown syntax
// while preserving their line structure.
func escapeParagraphs(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "- "); ok {
			out = append(out, "- "+markdownEscaper.Replace(rest))
			continue
		}
		out = append(out, markdownEscaper.Replace(line))
	}
	return strings.Join(out, "\n\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "[", `\[`, "]", `\]`, "<", `\<`,
)

func writeDOCX(w io.Writer, doc Document, opts Options) error {
	if err := ingest.ApplyLicense(opts.LicenseKey); err != nil {
		return fmt.Errorf("unioffice license: %w", err)
	}
	out := document.New()
	defer out.Close()

	if doc.Title != "" && !(doc.Markdown && notes.HasHeadings(doc.Body)) {
		para := out.AddParagraph()
		para.SetStyle("Title")
		para.AddRun().AddText(doc.Title)
	}
	for _, blk := range splitBlocks(doc) {
		para := out.AddParagraph()
		switch {
		case blk.level > 0:
			para.SetStyle(fmt.Sprintf("Heading%d", min(blk.level, 4)))
			para.AddRun().AddText(blk.text)
		case blk.bullet:
			para.AddRun().AddText("\u2022 " + blk.text)
		default:
			para.AddRun().AddText(blk.text)
		}
	}
	return out.Save(w)
}

// block is one output line: a heading (level > 0), a bullet, or a paragraph.
type block struct {
	level  int
	bullet bool
	text   string
}

// splitBlocks turns the body into one block per non-blank line. Markdown
// bodies have heading and list markers recognized and inline markup removed.
func splitBlocks(doc Document) []block {
	var blocks []block
	scanner := bufio.NewScanner(strings.NewReader(doc.Body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !doc.Markdown {
			if rest, ok := strings.CutPrefix(line, "- "); ok {
				blocks = append(blocks, block{bullet: true, text: strings.TrimSpace(rest)})
			} else {
				blocks = append(blocks, block{text: line})
			}
			continue
		}
		if level, text, ok := headingLine(line); ok {
			blocks = append(blocks, block{level: level, text: notes.PlainText(text, false)})
			continue
		}
		if text, ok := bulletLine(line); ok {
			blocks = append(blocks, block{bullet: true, text: text})
			continue
		}
		if text := notes.PlainText(line, false); text != "" {
			blocks = append(blocks, block{text: text})
		}
	}
	return blocks
}

func headingLine(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	text := strings.TrimSpace(strings.TrimRight(line[level:], "# "))
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

func bulletLine(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return notes.PlainText(strings.TrimSpace(rest), false), true
		}
	}
	return "", false
}
