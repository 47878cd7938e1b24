// Package main hosts the NoteWise CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the study workflow in-process against the
// SQLite session store, so notes, artifacts, highlights and question history
// persist between invocations. It centralizes configuration resolution,
// backend selection, and logger setup so subcommands only render results.
//
// The serve command hosts the same session behind the HTTP API. Keep this
// package lean: new behavior belongs in the internal packages first and is
// surfaced here through dedicated commands or flags.
package main
