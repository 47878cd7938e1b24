// Package annotations holds the highlight set and per-segment notes layered
// over rendered NotesText. Highlights and annotations are independent:
// removing one never touches the other.
package annotations

import (
	"sort"
	"strings"
	"sync"
)

// State is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	highlights  map[string]struct{}
	annotations map[string]string
}

// New returns an empty State.
func New() *State {
	return &State{
		highlights:  make(map[string]struct{}),
		annotations: make(map[string]string),
	}
}

// Restore returns a State seeded with persisted values. Blank keys and blank
// annotation texts are dropped.
func Restore(highlights []string, annotations map[string]string) *State {
	s := New()
	for _, key := range highlights {
		if key = strings.TrimSpace(key); key != "" {
			s.highlights[key] = struct{}{}
		}
	}
	for key, text := range annotations {
		key = strings.TrimSpace(key)
		if key != "" && strings.TrimSpace(text) != "" {
			s.annotations[key] = text
		}
	}
	return s
}

// Toggle flips highlight membership for key and reports the new state.
func (s *State) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.highlights[key]; ok {
		delete(s.highlights, key)
		return false
	}
	s.highlights[key] = struct{}{}
	return true
}

// Highlighted reports whether key is highlighted.
func (s *State) Highlighted(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.highlights[key]
	return ok
}

// SetAnnotation stores text for key. Blank text deletes the annotation.
func (s *State) SetAnnotation(key, text string) {
	if strings.TrimSpace(text) == "" {
		s.DeleteAnnotation(key)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations[key] = text
}

// DeleteAnnotation removes the annotation for key. Highlights are untouched.
func (s *State) DeleteAnnotation(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.annotations, key)
}

// Annotation returns the annotation for key.
func (s *State) Annotation(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.annotations[key]
	return text, ok
}

// Highlights returns the highlighted keys, sorted.
func (s *State) Highlights() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.highlights))
	for k := range s.highlights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Annotations returns a copy of the annotation map.
func (s *State) Annotations() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.annotations))
	for k, v := range s.annotations {
		out[k] = v
	}
	return out
}

// Reset clears highlights and annotations.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlights = make(map[string]struct{})
	s.annotations = make(map[string]string)
}
