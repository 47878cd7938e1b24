package notes

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StructuralMarkup lists the Markdown constructs present in s, sorted. An
// empty result means s renders as plain paragraphs.
func StructuralMarkup(s string) []string {
	source := []byte(s)
	root := markdown.Parser().Parse(text.NewReader(source))
	found := map[string]struct{}{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			found["heading"] = struct{}{}
		case *ast.List:
			found["list"] = struct{}{}
		case *ast.Emphasis:
			found["emphasis"] = struct{}{}
		case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock:
			found["code"] = struct{}{}
		case *ast.Blockquote:
			found["blockquote"] = struct{}{}
		case *ast.ThematicBreak:
			found["thematic_break"] = struct{}{}
		case *ast.Link, *ast.AutoLink, *ast.Image:
			found["link"] = struct{}{}
		}
		return ast.WalkContinue, nil
	})
	kinds := make([]string, 0, len(found))
	for k := range found {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// HasHeadings reports whether s contains a Markdown heading.
func HasHeadings(s string) bool {
	for _, kind := range StructuralMarkup(s) {
		if kind == "heading" {
			return true
		}
	}
	return false
}

// PlainText strips Markdown from a generated summary. Headings are dropped,
// inline formatting is flattened, and block quotes are unwrapped. With bullets
// set every block becomes a "- " line; otherwise blocks become paragraphs and
// list items are joined into running text.
func PlainText(s string, bullets bool) string {
	source := []byte(s)
	root := markdown.Parser().Parse(text.NewReader(source))

	var blocks []string
	var collect func(parent ast.Node)
	collect = func(parent ast.Node) {
		for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
			switch node := n.(type) {
			case *ast.Heading, *ast.ThematicBreak, *ast.HTMLBlock:
			case *ast.Blockquote:
				collect(node)
			case *ast.List:
				items := listItems(node, source)
				if bullets {
					blocks = append(blocks, items...)
				} else if len(items) > 0 {
					blocks = append(blocks, joinSentences(items))
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				if raw := strings.TrimSpace(rawLines(node, source)); raw != "" {
					blocks = append(blocks, raw)
				}
			default:
				if txt := nodeText(node, source); txt != "" {
					blocks = append(blocks, txt)
				}
			}
		}
	}
	collect(root)

	if bullets {
		lines := make([]string, 0, len(blocks))
		for _, b := range blocks {
			lines = append(lines, "- "+b)
		}
		return strings.Join(lines, "\n")
	}
	return strings.Join(blocks, "\n\n")
}

func listItems(list *ast.List, source []byte) []string {
	var items []string
	number := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if txt := nodeText(item, source); txt != "" {
			if list.IsOrdered() {
				txt = fmt.Sprintf("%d. %s", number, txt)
			}
			items = append(items, txt)
		}
		number++
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if nested, ok := child.(*ast.List); ok {
				items = append(items, listItems(nested, source)...)
			}
		}
	}
	return items
}

func joinSentences(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if !strings.HasSuffix(item, ".") && !strings.HasSuffix(item, "!") && !strings.HasSuffix(item, "?") {
			item += "."
		}
		parts = append(parts, item)
	}
	return strings.Join(parts, " ")
}

func rawLines(n ast.Node, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// HTML renders notes as an HTML fragment.
func HTML(notes string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(notes), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
