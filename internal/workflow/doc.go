// Package workflow owns a study session: the NotesText, the artifacts derived
// from it, and the highlights and annotations keyed to its segments.
//
// A Session moves an ingested input through the notes stage and then fans
// out to the summary, flashcards and key-concepts generators concurrently.
// A failed generator becomes a notice on the RunResult; only a missing
// NotesText fails a run. Every new input bumps an input generation counter
// and cancels the in-flight run, whose results are then discarded with
// services.ErrStaleResult.
//
// When a sessionstore.Store is attached, NotesText, artifacts, the Q&A
// history, highlights, and annotations are persisted so a later process can
// Restore the session.
package workflow
