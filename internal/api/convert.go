package api

import (
	"time"

	"notewise/internal/notes"
	"notewise/internal/sessionstore"
	"notewise/internal/study"
	"notewise/internal/workflow"
)

// FromSummary converts a study summary.
func FromSummary(s study.Summary) *Summary {
	return &Summary{Text: s.Text, Length: string(s.Options.Length), Style: string(s.Options.Style)}
}

// FromFlashcards converts a flashcard set, preserving order.
func FromFlashcards(set study.FlashcardSet) []Flashcard {
	out := make([]Flashcard, 0, len(set.Cards))
	for _, c := range set.Cards {
		out = append(out, Flashcard{Question: c.Question, Answer: c.Answer})
	}
	return out
}

// FromConcepts converts a key-concept set, preserving order.
func FromConcepts(set study.KeyConceptSet) []KeyConcept {
	out := make([]KeyConcept, 0, len(set.Concepts))
	for _, c := range set.Concepts {
		out = append(out, KeyConcept{Term: c.Term, Definition: c.Definition})
	}
	return out
}

// FromNotices converts workflow notices. The result is never nil.
func FromNotices(notices []workflow.Notice) []Notice {
	out := make([]Notice, 0, len(notices))
	for _, n := range notices {
		out = append(out, Notice{Stage: n.Stage, Kind: n.Kind, Message: n.Message})
	}
	return out
}

// FromRunResult converts a processing run. Failed branches are omitted and
// appear in Notices instead.
func FromRunResult(res workflow.RunResult) RunResponse {
	dto := RunResponse{
		RunID:        res.RunID,
		NotesVersion: res.NotesVersion,
		Notes:        res.Notes,
		Notices:      FromNotices(res.Notices),
		DurationMs:   res.Duration.Milliseconds(),
	}
	if res.Summary.OK() {
		dto.Summary = FromSummary(res.Summary.Value)
	}
	if res.Flashcards.OK() {
		dto.Flashcards = FromFlashcards(res.Flashcards.Value)
	}
	if res.Concepts.OK() {
		dto.Concepts = FromConcepts(res.Concepts.Value)
	}
	return dto
}

// FromStatus converts a workflow status.
func FromStatus(st workflow.Status) SessionStatus {
	busy := make(map[string]bool, len(st.Busy))
	for op, v := range st.Busy {
		busy[string(op)] = v
	}
	return SessionStatus{
		SessionID:       st.SessionID,
		NotesVersion:    st.NotesVersion,
		Digest:          st.Digest,
		HasNotes:        st.HasNotes,
		Source:          st.Source,
		InputMode:       string(st.InputMode),
		Busy:            busy,
		Highlights:      st.Highlights,
		Annotations:     st.Annotations,
		Questions:       st.Questions,
		LastError:       st.LastError,
		SpeechAvailable: st.SpeechAvailable,
	}
}

// FromHistory converts answered questions.
func FromHistory(history []sessionstore.QA) []QA {
	out := make([]QA, 0, len(history))
	for _, qa := range history {
		out = append(out, QA{Question: qa.Question, Answer: qa.Answer, CreatedAt: formatTime(qa.CreatedAt)})
	}
	return out
}

// FromSegments converts rendered segments, marking highlights and
// annotations.
func FromSegments(doc *notes.Document, highlights []string, annotations map[string]string) []Segment {
	if doc == nil {
		return []Segment{}
	}
	marked := make(map[string]struct{}, len(highlights))
	for _, key := range highlights {
		marked[key] = struct{}{}
	}
	out := make([]Segment, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		_, on := marked[seg.Key]
		out = append(out, Segment{
			Key:         seg.Key,
			Kind:        seg.Kind,
			Line:        seg.Line,
			Column:      seg.Column,
			Text:        seg.Text,
			Highlighted: on,
			Annotation:  annotations[seg.Key],
		})
	}
	return out
}

// SessionViewOf assembles the full view of a session.
func SessionViewOf(s *workflow.Session) SessionView {
	text, _ := s.Notes()
	st := s.Status()
	view := SessionView{
		Status:      FromStatus(st),
		Notes:       text,
		Flashcards:  []Flashcard{},
		Concepts:    []KeyConcept{},
		Highlights:  s.Highlights(),
		Annotations: s.Annotations(),
		History:     FromHistory(s.History()),
		Notices:     FromNotices(st.Notices),
	}
	if summary, ok := s.Summary(); ok {
		view.Summary = FromSummary(summary)
	}
	if cards, ok := s.Flashcards(); ok {
		view.Flashcards = FromFlashcards(cards)
	}
	if concepts, ok := s.KeyConcepts(); ok {
		view.Concepts = FromConcepts(concepts)
	}
	return view
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
