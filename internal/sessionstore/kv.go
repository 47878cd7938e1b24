package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Fixed session keys for annotation state.
const (
	HighlightsKey  = "noteWiseCurrentHighlights"
	AnnotationsKey = "noteWiseAnnotations"
)

// Put stores value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	err := s.exec(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), timestamp(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.exec(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SaveHighlights writes the highlight set as a sorted JSON array. An empty set
// deletes the key.
func (s *Store) SaveHighlights(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return s.Delete(ctx, HighlightsKey)
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	payload, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("marshal highlights: %w", err)
	}
	return s.Put(ctx, HighlightsKey, payload)
}

// LoadHighlights reads the highlight set. A missing or unreadable payload
// yields an empty set; the bool reports whether the payload was discarded.
func (s *Store) LoadHighlights(ctx context.Context) ([]string, bool, error) {
	raw, ok, err := s.Get(ctx, HighlightsKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, true, nil
	}
	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out, false, nil
}

// SaveAnnotations writes the annotation map. An empty map deletes the key.
func (s *Store) SaveAnnotations(ctx context.Context, annotations map[string]string) error {
	if len(annotations) == 0 {
		return s.Delete(ctx, AnnotationsKey)
	}
	payload, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	return s.Put(ctx, AnnotationsKey, payload)
}

// LoadAnnotations reads the annotation map with the same corruption handling
// as LoadHighlights.
func (s *Store) LoadAnnotations(ctx context.Context) (map[string]string, bool, error) {
	raw, ok, err := s.Get(ctx, AnnotationsKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var annotations map[string]string
	if err := json.Unmarshal(raw, &annotations); err != nil {
		return nil, true, nil
	}
	return annotations, false, nil
}
