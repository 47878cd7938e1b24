package study

import (
	"fmt"
	"strings"
)

// NotFoundAnswer is returned verbatim when a question cannot be answered from
// the notes.
const NotFoundAnswer = "I could not find an answer to that question in the provided document."

// SummaryLength controls how much detail a summary carries.
type SummaryLength string

// SummaryStyle controls the layout of a summary.
type SummaryStyle string

const (
	LengthShort         SummaryLength = "short"
	LengthMedium        SummaryLength = "medium"
	LengthComprehensive SummaryLength = "comprehensive"

	StyleParagraph    SummaryStyle = "paragraph"
	StyleBulletPoints SummaryStyle = "bullet_points"
)

// ParseSummaryLength accepts a length name; blank yields medium.
func ParseSummaryLength(value string) (SummaryLength, error) {
	switch SummaryLength(strings.ToLower(strings.TrimSpace(value))) {
	case "", LengthMedium:
		return LengthMedium, nil
	case LengthShort:
		return LengthShort, nil
	case LengthComprehensive:
		return LengthComprehensive, nil
	default:
		return "", fmt.Errorf("unknown summary length %q (want short, medium, or comprehensive)", value)
	}
}

// ParseSummaryStyle accepts a style name; blank yields paragraph.
func ParseSummaryStyle(value string) (SummaryStyle, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(StyleParagraph):
		return StyleParagraph, nil
	case string(StyleBulletPoints), "bullets", "bullet-points":
		return StyleBulletPoints, nil
	default:
		return "", fmt.Errorf("unknown summary style %q (want paragraph or bullet_points)", value)
	}
}

// SummaryOptions selects the summary shape.
type SummaryOptions struct {
	Length SummaryLength `json:"length"`
	Style  SummaryStyle  `json:"style"`
}

// Normalized fills blank fields with the defaults.
func (o SummaryOptions) Normalized() SummaryOptions {
	if o.Length == "" {
		o.Length = LengthMedium
	}
	if o.Style == "" {
		o.Style = StyleParagraph
	}
	return o
}

// Summary is plain text plus the options it was generated with.
type Summary struct {
	Text    string         `json:"text"`
	Options SummaryOptions `json:"options"`
}

// Flashcard is one question and answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardSet keeps cards in generation order.
type FlashcardSet struct {
	Cards []Flashcard `json:"cards"`
}

// KeyConcept is a term defined from the notes.
type KeyConcept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// KeyConceptSet keeps concepts in generation order.
type KeyConceptSet struct {
	Concepts []KeyConcept `json:"concepts"`
}
