package sessionstore

import (
	"context"
	"fmt"
	"time"
)

// QA is one answered question.
type QA struct {
	ID           int64     `json:"id"`
	NotesVersion int64     `json:"notes_version"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"created_at"`
}

// AppendQA records an answered question.
func (s *Store) AppendQA(ctx context.Context, notesVersion int64, question, answer string) error {
	err := s.exec(ctx,
		"INSERT INTO qa_history (notes_version, question, answer, created_at) VALUES (?, ?, ?, ?)",
		notesVersion, question, answer, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("append qa: %w", err)
	}
	return nil
}

// History returns answered questions, oldest first.
func (s *Store) History(ctx context.Context) ([]QA, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, notes_version, question, answer, created_at FROM qa_history ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("query qa history: %w", err)
	}
	defer rows.Close()

	var out []QA
	for rows.Next() {
		var (
			qa      QA
			created string
		)
		if err := rows.Scan(&qa.ID, &qa.NotesVersion, &qa.Question, &qa.Answer, &created); err != nil {
			return nil, fmt.Errorf("scan qa history: %w", err)
		}
		qa.CreatedAt = parseTime(created)
		out = append(out, qa)
	}
	return out, rows.Err()
}
