package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notewise/internal/export"
	"notewise/internal/logging"
	"notewise/internal/notes"
	"notewise/internal/services"
	"notewise/internal/sessionstore"
)

const noNotesMessage = "Notes are not available to answer questions. Please process a document or text first."

// Ask answers question from the current NotesText and records it in the
// session history.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	ctx = s.contextFor(ctx)
	s.mu.Lock()
	text, version, gen := s.notesText, s.version, s.generation
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrPrecondition, "workflow", "ask", noNotesMessage, nil)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", "ask", "Please enter a question.", nil)
	}

	done := s.begin(OpQuestion)
	defer done()
	answer, err := s.service.Answer(services.WithStage(ctx, "answer"), text, question)
	if err != nil {
		s.recordError(err)
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.version != version {
		return "", services.Wrap(services.ErrStaleResult, "workflow", "ask",
			"The notes changed while answering; the answer was discarded.", nil)
	}
	entry := sessionstore.QA{NotesVersion: version, Question: question, Answer: answer, CreatedAt: time.Now().UTC()}
	s.history = append(s.history, entry)
	if s.store != nil {
		if err := s.store.AppendQA(context.WithoutCancel(ctx), version, question, answer); err != nil {
			s.warnPersistence(ctx, "append history", err)
		}
	}
	return answer, nil
}

// Explain rephrases fragment in simple terms. It does not read or change
// session state.
func (s *Session) Explain(ctx context.Context, fragment string) (string, error) {
	ctx = s.contextFor(ctx)
	if strings.TrimSpace(fragment) == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", "explain",
			"No text selected or provided to explain.", nil)
	}
	done := s.begin(OpExplain)
	defer done()
	explanation, err := s.service.Explain(services.WithStage(ctx, "explain"), fragment)
	if err != nil {
		logging.WithContext(ctx, s.logger).Debug("explain failed", logging.ErrorKind(err), logging.Error(err))
		return "", err
	}
	return explanation, nil
}

// ExplainSegment explains the text of the segment with key in the current
// notes.
func (s *Session) ExplainSegment(ctx context.Context, key string) (notes.Segment, string, error) {
	seg, _, err := s.segment("explain", key)
	if err != nil {
		return notes.Segment{}, "", err
	}
	explanation, err := s.Explain(ctx, seg.Text)
	return seg, explanation, err
}

// Segments renders the current notes into keyed segments. The result is
// cached per NotesText digest.
func (s *Session) Segments() *notes.Document {
	s.mu.Lock()
	text := s.notesText
	s.mu.Unlock()
	return s.segments.Render(text)
}

// notesStamp identifies the NotesText a segment key was resolved against.
// The generation covers resets, which restart version numbering.
type notesStamp struct {
	generation uint64
	version    int64
}

// segment resolves key against the current notes.
func (s *Session) segment(op, key string) (notes.Segment, notesStamp, error) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	text := s.notesText
	stamp := notesStamp{generation: s.generation, version: s.version}
	s.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return notes.Segment{}, notesStamp{}, services.Wrap(services.ErrPrecondition, "workflow", op,
			"Notes are not available. Please process a document or text first.", nil)
	}
	seg, ok := s.segments.Render(text).Lookup(key)
	if !ok {
		return notes.Segment{}, notesStamp{}, services.Wrap(services.ErrValidation, "workflow", op,
			fmt.Sprintf("Unknown segment %q.", key), nil)
	}
	return seg, stamp, nil
}

// updateMarks runs fn under the lock if the notes are still the ones stamp
// was taken from. Keys resolved against replaced notes are rejected.
func (s *Session) updateMarks(op string, stamp notesStamp, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != stamp.generation || s.version != stamp.version {
		return services.Wrap(services.ErrStaleResult, "workflow", op,
			"The notes changed before the change could be applied. Please try again.", nil)
	}
	fn()
	return nil
}

// ToggleHighlight flips the highlight on the segment with key and returns
// the new state.
func (s *Session) ToggleHighlight(ctx context.Context, key string) (bool, error) {
	seg, stamp, err := s.segment("highlight", key)
	if err != nil {
		return false, err
	}
	var on bool
	err = s.updateMarks("highlight", stamp, func() {
		on = s.marks.Toggle(seg.Key)
		s.saveHighlightsLocked(ctx)
	})
	return on, err
}

// SetAnnotation attaches text to the segment with key. Blank text removes
// the annotation. Highlights are not affected.
func (s *Session) SetAnnotation(ctx context.Context, key, text string) error {
	seg, stamp, err := s.segment("annotate", key)
	if err != nil {
		return err
	}
	return s.updateMarks("annotate", stamp, func() {
		s.marks.SetAnnotation(seg.Key, text)
		s.saveAnnotationsLocked(ctx)
	})
}

// DeleteAnnotation removes the annotation on key, leaving any highlight.
func (s *Session) DeleteAnnotation(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return services.Wrap(services.ErrValidation, "workflow", "annotate", "A segment key is required.", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks.DeleteAnnotation(key)
	s.saveAnnotationsLocked(ctx)
	return nil
}

// Highlights returns the highlighted segment keys, sorted.
func (s *Session) Highlights() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marks.Highlights()
}

// Annotations returns a copy of the annotations by segment key.
func (s *Session) Annotations() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marks.Annotations()
}

func (s *Session) saveHighlightsLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveHighlights(context.WithoutCancel(ctx), s.marks.Highlights()); err != nil {
		s.warnPersistence(ctx, "save highlights", err)
	}
}

func (s *Session) saveAnnotationsLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveAnnotations(context.WithoutCancel(ctx), s.marks.Annotations()); err != nil {
		s.warnPersistence(ctx, "save annotations", err)
	}
}

// Speak reads the notes or the summary aloud.
func (s *Session) Speak(ctx context.Context, what string) error {
	var text string
	switch strings.ToLower(strings.TrimSpace(what)) {
	case "notes", "":
		text, _ = s.Notes()
		text = notes.PlainText(text, false)
	case "summary":
		summary, ok := s.Summary()
		if ok {
			text = summary.Text
		}
	default:
		return services.Wrap(services.ErrValidation, "workflow", "speak",
			fmt.Sprintf("Cannot read %q aloud. Choose notes or summary.", what), nil)
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrPrecondition, "workflow", "speak", "Nothing to read aloud yet.", nil)
	}
	return s.speech.Speak(s.contextFor(ctx), text)
}

// ExportDocument resolves what ("notes" or "summary") to the document the
// exporter writes. A missing artifact yields an empty body, which the
// exporter rejects as a precondition failure.
func (s *Session) ExportDocument(what string) (export.Document, error) {
	switch strings.ToLower(strings.TrimSpace(what)) {
	case "notes", "":
		text, _ := s.Notes()
		return export.Document{Title: "Notes", Body: text, Markdown: true}, nil
	case "summary":
		doc := export.Document{Title: "Summary"}
		if summary, ok := s.Summary(); ok {
			doc.Body = summary.Text
		}
		return doc, nil
	default:
		return export.Document{}, services.Wrap(services.ErrValidation, "workflow", "export",
			fmt.Sprintf("Cannot export %q. Choose notes or summary.", what), nil)
	}
}
