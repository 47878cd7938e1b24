package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Snapshot is the persisted NotesText state.
type Snapshot struct {
	SessionID string
	NotesText string
	Version   int64
	Digest    string
	Source    string
	InputMode string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Load returns the current session row.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var (
		snap               Snapshot
		source, mode       sql.NullString
		createdRaw, updRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, notes_text, notes_version, notes_digest, source, input_mode, created_at, updated_at
         FROM session WHERE id = 1`,
	).Scan(&snap.SessionID, &snap.NotesText, &snap.Version, &snap.Digest, &source, &mode, &createdRaw, &updRaw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	snap.Source = source.String
	snap.InputMode = mode.String
	snap.CreatedAt = parseTime(createdRaw)
	snap.UpdatedAt = parseTime(updRaw)
	return snap, nil
}

// SaveNotes replaces NotesText. When the version changes, artifacts, history,
// highlights, and annotations from the previous version are discarded in the
// same transaction.
func (s *Store) SaveNotes(ctx context.Context, snap Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current int64
		if err := tx.QueryRowContext(ctx, "SELECT notes_version FROM session WHERE id = 1").Scan(&current); err != nil {
			return fmt.Errorf("read notes version: %w", err)
		}
		if current != snap.Version {
			for _, stmt := range []string{
				"DELETE FROM artifacts",
				"DELETE FROM qa_history",
				"DELETE FROM kv WHERE key IN ('" + HighlightsKey + "', '" + AnnotationsKey + "')",
			} {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("clear previous notes state: %w", err)
				}
			}
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE session SET notes_text = ?, notes_version = ?, notes_digest = ?, source = ?, input_mode = ?, updated_at = ?
             WHERE id = 1`,
			snap.NotesText, snap.Version, snap.Digest, nullableString(snap.Source), nullableString(snap.InputMode), timestamp(),
		)
		if err != nil {
			return fmt.Errorf("save notes: %w", err)
		}
		return nil
	})
}
