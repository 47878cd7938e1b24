// Package notes parses NotesText (Markdown) with goldmark and derives the
// segment structure the annotation layer keys on.
//
// A segment is one rendered unit: a paragraph, a heading, or a list item. Its
// key is "<kind>-<line>-<column>" where kind is p, h1..h6, or li and the
// position is the 1-based line and column where the block starts in the
// source: the first text of a paragraph, the "#" of a heading, the bullet or
// number of a list item. Keys are stable for a given NotesText and carry no
// meaning across different NotesText values.
//
// Two segments that start at the same coordinates receive the same key. Render
// keeps both in document order and Lookup returns the first; callers must not
// assume keys are unique.
//
// The package also provides the summary markup guard (HasHeadings, PlainText)
// and HTML rendering for exports.
package notes
