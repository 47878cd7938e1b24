// Package services defines shared utilities consumed by the workflow session,
// the generation stages, and the LLM backends.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, run IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. Every failure surfaced to
//     a user carries one marker (unsupported input, extraction, generation,
//     validation, precondition, timeout) and a human-readable message.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
