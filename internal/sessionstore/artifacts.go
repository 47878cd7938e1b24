package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Artifact kinds.
const (
	ArtifactSummary    = "summary"
	ArtifactFlashcards = "flashcards"
	ArtifactConcepts   = "concepts"
)

// PutArtifact stores value as the artifact of kind generated from the given
// notes version, replacing any earlier one.
func (s *Store) PutArtifact(ctx context.Context, kind string, notesVersion int64, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", kind, err)
	}
	err = s.exec(ctx,
		`INSERT INTO artifacts (kind, notes_version, payload, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(kind) DO UPDATE SET notes_version = excluded.notes_version,
             payload = excluded.payload, updated_at = excluded.updated_at`,
		kind, notesVersion, string(payload), timestamp(),
	)
	if err != nil {
		return fmt.Errorf("store %s artifact: %w", kind, err)
	}
	return nil
}

// GetArtifact decodes the artifact of kind into target. It reports false when
// no artifact exists for notesVersion.
func (s *Store) GetArtifact(ctx context.Context, kind string, notesVersion int64, target any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM artifacts WHERE kind = ? AND notes_version = ?", kind, notesVersion,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s artifact: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return false, fmt.Errorf("decode %s artifact: %w", kind, err)
	}
	return true, nil
}

// DeleteArtifact removes the artifact of kind.
func (s *Store) DeleteArtifact(ctx context.Context, kind string) error {
	if err := s.exec(ctx, "DELETE FROM artifacts WHERE kind = ?", kind); err != nil {
		return fmt.Errorf("delete %s artifact: %w", kind, err)
	}
	return nil
}
