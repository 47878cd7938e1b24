// Package api defines wire-format types and converters for the HTTP API. It
// translates workflow sessions and study artifacts into transport-friendly
// DTOs without exposing internal types.
//
// # Key Types
//
// SessionView: NotesText, artifacts, segments, highlights, annotations, and
// busy state for one session.
//
// RunResponse: the result of a processing run, with per-branch errors
// reported as notices.
//
// ErrorResponse: the error kind (services.Kind) plus the user-facing message.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds. A branch that failed has a nil artifact and a
// matching entry in Notices.
package api
