// Package study turns NotesText into study artifacts through an LLM backend.
//
// Generator issues one JSON completion per call shape (notes, summarize,
// flashcards, key concepts, answer, explain). Every response is checked
// against an embedded JSON schema before it is decoded, and each call runs
// under its own deadline. CachedGenerator memoizes the derived artifacts by
// NotesText digest. Deck provides wrap-around flashcard review.
package study
