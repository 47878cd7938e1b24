package workflow

import (
	"fmt"
	"time"

	"notewise/internal/ingest"
	"notewise/internal/services"
	"notewise/internal/stageexec"
	"notewise/internal/study"
)

// Operation names a unit of session work tracked in Status.Busy.
type Operation string

const (
	OpProcessing Operation = "processing"
	OpSummary    Operation = "summary"
	OpFlashcards Operation = "flashcards"
	OpConcepts   Operation = "concepts"
	OpQuestion   Operation = "question"
	OpExplain    Operation = "explain"
)

// Operations lists every tracked operation in display order.
var Operations = []Operation{OpProcessing, OpSummary, OpFlashcards, OpConcepts, OpQuestion, OpExplain}

// Outcome is the result of one best-effort branch. It either carries a Value
// or an Err; the zero Outcome reports neither and is not OK.
type Outcome[T any] struct {
	Value T
	Err   error
	done  bool
}

// Succeeded constructs a successful outcome.
func Succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value, done: true}
}

// Failed constructs a failed outcome.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err, done: true}
}

// OK reports whether the branch ran and produced a value.
func (o Outcome[T]) OK() bool { return o.done && o.Err == nil }

// Ran reports whether the branch produced either a value or an error.
func (o Outcome[T]) Ran() bool { return o.done }

func outcomeFrom[T any](res stageexec.Result) Outcome[T] {
	if res.Err != nil {
		return Failed[T](res.Err)
	}
	value, ok := res.Value.(T)
	if !ok {
		return Failed[T](services.Wrap(services.ErrGeneration, "workflow", res.Stage,
			fmt.Sprintf("Could not generate %s: unexpected result %T", res.Stage, res.Value), nil))
	}
	return Succeeded(value)
}

// Notice reports a non-fatal branch failure.
type Notice struct {
	Stage   string
	Kind    string
	Message string
}

// RunResult collects one processing run.
type RunResult struct {
	RunID        string
	NotesVersion int64
	Notes        string
	Summary      Outcome[study.Summary]
	Flashcards   Outcome[study.FlashcardSet]
	Concepts     Outcome[study.KeyConceptSet]
	Notices      []Notice
	Duration     time.Duration
}

// Status is a point-in-time view of the session.
type Status struct {
	SessionID       string
	NotesVersion    int64
	Digest          string
	HasNotes        bool
	NotesChars      int
	Source          string
	InputMode       ingest.Mode
	Busy            map[Operation]bool
	HasSummary      bool
	Flashcards      int
	Concepts        int
	Highlights      int
	Annotations     int
	Questions       int
	Notices         []Notice
	LastError       string
	SpeechAvailable bool
}
