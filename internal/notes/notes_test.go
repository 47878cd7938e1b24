package notes_test

import (
	"strings"
	"testing"

	"notewise/internal/notes"
)

const sample = "# Capitals\n\nParis is the capital of France.\nIt sits on the Seine.\n\n- Berlin is in Germany\n- Rome is in Italy\n  - Vatican City nearby\n\n## Rivers\n\nThe Rhine flows north.\n"

func TestRenderAssignsPositionalKeys(t *testing.T) {
	doc := notes.Render(sample)

	want := []string{"h1-1-1", "p-3-1", "li-6-1", "li-7-1", "li-8-3", "h2-10-1", "p-12-1"}
	if len(doc.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(doc.Segments), doc.Segments)
	}
	for i, key := range want {
		if got := doc.Segments[i].Key; got != key {
			t.Fatalf("segment %d: expected key %q, got %q", i, key, got)
		}
	}
	if doc.Segments[0].Text != "Capitals" || doc.Segments[5].Text != "Rivers" {
		t.Fatalf("unexpected heading text %q / %q", doc.Segments[0].Text, doc.Segments[5].Text)
	}

	seg, ok := doc.Lookup("p-3-1")
	if !ok {
		t.Fatal("expected p-3-1 to resolve")
	}
	if seg.Text != "Paris is the capital of France. It sits on the Seine." {
		t.Fatalf("unexpected paragraph text %q", seg.Text)
	}
	if item, _ := doc.Lookup("li-7-1"); item.Text != "Rome is in Italy" {
		t.Fatalf("nested list text leaked into parent: %q", item.Text)
	}
}

func TestRenderIsStableForSameNotes(t *testing.T) {
	first := notes.Render(sample)
	second := notes.Render(sample)
	if first.Digest != second.Digest {
		t.Fatal("digest changed between renders")
	}
	for i := range first.Segments {
		if first.Segments[i] != second.Segments[i] {
			t.Fatalf("segment %d differs: %+v vs %+v", i, first.Segments[i], second.Segments[i])
		}
	}
}

func TestLookupUnknownKey(t *testing.T) {
	doc := notes.Render("Just one paragraph.")
	if _, ok := doc.Lookup("p-9-9"); ok {
		t.Fatal("expected unknown key to miss")
	}
	if !doc.Has("p-1-1") {
		t.Fatal("expected p-1-1")
	}
	var nilDoc *notes.Document
	if nilDoc.Has("p-1-1") {
		t.Fatal("nil document should have no segments")
	}
}

func TestRenderHandlesUnicodeText(t *testing.T) {
	doc := notes.Render("Ünïcode start.\n\n- Ä item\n")
	if len(doc.Segments) != 2 || doc.Segments[1].Key != "li-3-1" {
		t.Fatalf("unexpected segments %+v", doc.Segments)
	}
	if doc.Segments[0].Text != "Ünïcode start." {
		t.Fatalf("unexpected text %q", doc.Segments[0].Text)
	}
}

func TestCacheReusesDocumentForSameDigest(t *testing.T) {
	var cache notes.Cache
	first := cache.Render(sample)
	if cache.Render(sample) != first {
		t.Fatal("expected cached document for identical notes")
	}
	if cache.Render(sample+"\nMore.") == first {
		t.Fatal("expected a fresh document after notes changed")
	}
}

func TestStructuralMarkup(t *testing.T) {
	if kinds := notes.StructuralMarkup("Plain words only.\n\nAnother paragraph."); len(kinds) != 0 {
		t.Fatalf("expected no markup, got %v", kinds)
	}
	kinds := notes.StructuralMarkup("## Heading\n\n**bold** and a list:\n\n- one\n")
	joined := strings.Join(kinds, ",")
	if joined != "emphasis,heading,list" {
		t.Fatalf("unexpected markup kinds %q", joined)
	}
	if !notes.HasHeadings("# Title\n\nbody") {
		t.Fatal("expected heading detection")
	}
	if notes.HasHeadings("Issue #4 is open.") {
		t.Fatal("inline hash is not a heading")
	}
}

func TestPlainTextParagraphStyle(t *testing.T) {
	in := "## Overview\n\nThe **cell** is the unit of _life_.\n\n- Membranes\n- Nuclei hold DNA.\n"
	got := notes.PlainText(in, false)
	want := "The cell is the unit of life.\n\nMembranes. Nuclei hold DNA."
	if got != want {
		t.Fatalf("unexpected plain text:\n%q\nwant\n%q", got, want)
	}
	if notes.HasHeadings(got) {
		t.Fatal("plain text still has headings")
	}
}

func TestPlainTextBulletStyle(t *testing.T) {
	in := "# Summary\n\n* First point\n* Second *point*\n\nClosing thought."
	got := notes.PlainText(in, true)
	want := "- First point\n- Second point\n- Closing thought."
	if got != want {
		t.Fatalf("unexpected bullets:\n%q\nwant\n%q", got, want)
	}
}

func TestHTMLRendersMarkdown(t *testing.T) {
	html, err := notes.HTML("# Title\n\nBody text.")
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") || !strings.Contains(html, "<p>Body text.</p>") {
		t.Fatalf("unexpected html %q", html)
	}
}

func TestPlainTextKeepsOrderedNumbers(t *testing.T) {
	got := notes.PlainText("1. Alpha\n2. Beta\n", false)
	if got != "1. Alpha. 2. Beta." {
		t.Fatalf("unexpected ordered list flattening %q", got)
	}
}
