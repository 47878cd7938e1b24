package notes

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Segment is one keyed unit of rendered notes.
type Segment struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// Document is the parsed form of one NotesText version.
type Document struct {
	Digest   string
	Segments []Segment
	index    map[string]int
}

var markdown = goldmark.New()

// Digest returns the sha256 hex digest identifying a NotesText value.
func Digest(notes string) string {
	sum := sha256.Sum256([]byte(notes))
	return hex.EncodeToString(sum[:])
}

// Render parses notes and returns its segments in document order.
func Render(notes string) *Document {
	source := []byte(notes)
	root := markdown.Parser().Parse(text.NewReader(source))
	lines := newLineIndex(source)

	doc := &Document{Digest: Digest(notes), index: make(map[string]int)}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		kind := segmentKind(n)
		if kind == "" {
			return ast.WalkContinue, nil
		}
		start, ok := firstTextOffset(n)
		if !ok {
			return ast.WalkContinue, nil
		}
		if kind == "p" {
			for start < len(source) && (source[start] == ' ' || source[start] == '\t') {
				start++
			}
		} else {
			// Headings and list items are keyed on the block start: the
			// heading marker or the list bullet.
			start = lines.blockStart(source, start)
		}
		line, col := lines.position(source, start)
		seg := Segment{
			Key:    fmt.Sprintf("%s-%d-%d", kind, line, col),
			Kind:   kind,
			Line:   line,
			Column: col,
			Text:   nodeText(n, source),
		}
		if _, dup := doc.index[seg.Key]; !dup {
			doc.index[seg.Key] = len(doc.Segments)
		}
		doc.Segments = append(doc.Segments, seg)
		if kind == "li" {
			// Nested lists are their own segments; paragraphs inside the
			// item belong to it.
			return ast.WalkContinue, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return doc
}

// Lookup returns the first segment with key.
func (d *Document) Lookup(key string) (Segment, bool) {
	if d == nil {
		return Segment{}, false
	}
	idx, ok := d.index[strings.TrimSpace(key)]
	if !ok {
		return Segment{}, false
	}
	return d.Segments[idx], true
}

// Has reports whether key names a segment of this document.
func (d *Document) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

func segmentKind(n ast.Node) string {
	switch node := n.(type) {
	case *ast.Heading:
		return fmt.Sprintf("h%d", node.Level)
	case *ast.ListItem:
		return "li"
	case *ast.Paragraph:
		if _, inItem := node.Parent().(*ast.ListItem); inItem {
			return ""
		}
		return "p"
	default:
		return ""
	}
}

// firstTextOffset finds the byte offset of the first source line owned by n
// or, for containers such as list items, by its first descendant block.
func firstTextOffset(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() != ast.TypeBlock {
			continue
		}
		if offset, ok := firstTextOffset(child); ok {
			return offset, true
		}
	}
	return 0, false
}

// nodeText concatenates the inline text under n. Soft and hard line breaks
// become spaces; nested list items are excluded from their parent's text.
func nodeText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c != n {
			if _, nested := c.(*ast.List); nested {
				return ast.WalkSkipChildren, nil
			}
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if txt, ok := child.(*ast.Text); ok {
					b.Write(txt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	starts := lineIndex{0}
	for i, c := range source {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// blockStart returns the offset of the first non-blank byte on the line
// containing offset.
func (l lineIndex) blockStart(source []byte, offset int) int {
	line, _ := l.position(source, offset)
	start := l[line-1]
	for start < offset && (source[start] == ' ' || source[start] == '\t') {
		start++
	}
	return start
}

// position converts a byte offset into a 1-based line and rune column.
func (l lineIndex) position(source []byte, offset int) (int, int) {
	lo, hi := 0, len(l)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, utf8.RuneCount(source[l[lo]:offset]) + 1
}
