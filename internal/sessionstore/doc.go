// Package sessionstore persists one study session in SQLite.
//
// The store holds the current NotesText and its version, the derived
// artifacts generated from it, the question history, and a small key-value
// table for browser-compatible session keys. Highlights and annotations live
// under the fixed keys HighlightsKey and AnnotationsKey as JSON payloads; an
// empty set deletes its key rather than storing an empty document.
//
// The database is session scoped: Reset wipes everything and a new session ID
// is issued. Schema changes ship as numbered files under migrations/.
package sessionstore
