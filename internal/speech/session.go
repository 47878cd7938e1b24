package speech

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Session operations after Close.
var ErrClosed = errors.New("speech session closed")

// Session owns one recognizer and shares the detected synthesizer. It is
// created per workflow session; there is no process-wide recognizer.
type Session struct {
	caps Capabilities

	mu         sync.Mutex
	recognizer Recognizer
	listening  bool
	closed     bool
}

// NewSession binds a session to detected capabilities.
func NewSession(caps Capabilities) *Session {
	if caps.Synthesizer == nil {
		caps.Synthesizer = Noop{}
	}
	if caps.NewRecognizer == nil {
		caps.NewRecognizer = func() Recognizer { return Noop{} }
	}
	return &Session{caps: caps}
}

// Open starts listening. Calling Open while already listening is a no-op.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.listening {
		return nil
	}
	rec := s.caps.NewRecognizer()
	if err := rec.Start(ctx); err != nil {
		return err
	}
	s.recognizer = rec
	s.listening = true
	return nil
}

// Transcripts returns the current recognizer's channel, or a closed channel
// when not listening.
func (s *Session) Transcripts() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recognizer == nil {
		return Noop{}.Transcripts()
	}
	return s.recognizer.Transcripts()
}

// StopListening stops the recognizer but keeps the session usable.
func (s *Session) StopListening() error {
	s.mu.Lock()
	rec := s.recognizer
	s.recognizer = nil
	s.listening = false
	s.mu.Unlock()
	if rec == nil {
		return nil
	}
	return rec.Stop()
}

// Speak reads text aloud.
func (s *Session) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.caps.Synthesizer.Speak(ctx, text)
}

// StopSpeaking interrupts the current utterance.
func (s *Session) StopSpeaking() error {
	return s.caps.Synthesizer.Stop()
}

// CanSpeak reports whether synthesis is available.
func (s *Session) CanSpeak() bool { return s.caps.CanSpeak }

// CanListen reports whether recognition is available.
func (s *Session) CanListen() bool { return s.caps.CanListen }

// Close releases the recognizer and stops any utterance.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return errors.Join(s.StopListening(), s.StopSpeaking())
}
