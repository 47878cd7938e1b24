package workflow

import (
	"strings"

	"notewise/internal/services"
)

// Status returns the latest session information.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make(map[Operation]bool, len(Operations))
	for _, op := range Operations {
		busy[op] = s.busy[op] > 0
	}
	st := Status{
		SessionID:       s.sessionID,
		NotesVersion:    s.version,
		Digest:          s.digest,
		HasNotes:        strings.TrimSpace(s.notesText) != "",
		NotesChars:      len(s.notesText),
		Source:          s.source,
		InputMode:       s.inputMode,
		Busy:            busy,
		HasSummary:      s.summary != nil,
		Highlights:      len(s.marks.Highlights()),
		Annotations:     len(s.marks.Annotations()),
		Questions:       len(s.history),
		Notices:         append([]Notice(nil), s.notices...),
		SpeechAvailable: s.speech.CanSpeak() || s.speech.CanListen(),
	}
	if s.flashcards != nil {
		st.Flashcards = len(s.flashcards.Cards)
	}
	if s.concepts != nil {
		st.Concepts = len(s.concepts.Concepts)
	}
	if s.lastErr != nil {
		st.LastError = services.UserMessage(s.lastErr)
	}
	return st
}

// Busy reports whether op is in progress.
func (s *Session) Busy(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[op] > 0
}
