package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Summary is a generated summary.
type Summary struct {
	Text   string `json:"text"`
	Length string `json:"length"`
	Style  string `json:"style"`
}

// Flashcard is one question and answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// KeyConcept is one defined term.
type KeyConcept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Notice reports a generator that failed without failing the run.
type Notice struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Segment is an addressable piece of the rendered notes.
type Segment struct {
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
	Annotation  string `json:"annotation,omitempty"`
}

// QA is one answered question.
type QA struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// RunResponse is returned by POST /api/process.
type RunResponse struct {
	RunID        string       `json:"runId"`
	NotesVersion int64        `json:"notesVersion"`
	Notes        string       `json:"notes"`
	Summary      *Summary     `json:"summary,omitempty"`
	Flashcards   []Flashcard  `json:"flashcards,omitempty"`
	Concepts     []KeyConcept `json:"concepts,omitempty"`
	Notices      []Notice     `json:"notices"`
	DurationMs   int64        `json:"durationMs"`
}

// SessionStatus mirrors workflow.Status.
type SessionStatus struct {
	SessionID       string          `json:"sessionId"`
	NotesVersion    int64           `json:"notesVersion"`
	Digest          string          `json:"digest,omitempty"`
	HasNotes        bool            `json:"hasNotes"`
	Source          string          `json:"source,omitempty"`
	InputMode       string          `json:"inputMode"`
	Busy            map[string]bool `json:"busy"`
	Highlights      int             `json:"highlights"`
	Annotations     int             `json:"annotations"`
	Questions       int             `json:"questions"`
	LastError       string          `json:"lastError,omitempty"`
	SpeechAvailable bool            `json:"speechAvailable"`
}

// SessionView is returned by GET /api/session.
type SessionView struct {
	Status      SessionStatus     `json:"status"`
	Notes       string            `json:"notes"`
	Summary     *Summary          `json:"summary,omitempty"`
	Flashcards  []Flashcard       `json:"flashcards"`
	Concepts    []KeyConcept      `json:"concepts"`
	Highlights  []string          `json:"highlights"`
	Annotations map[string]string `json:"annotations"`
	History     []QA              `json:"history"`
	Notices     []Notice          `json:"notices"`
}

// ProcessTextRequest is the JSON body of POST /api/process.
type ProcessTextRequest struct {
	Text   string `json:"text"`
	Length string `json:"length,omitempty"`
	Style  string `json:"style,omitempty"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the answer.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Found    bool   `json:"found"`
}

// ExplainRequest is the body of POST /api/explain. Key takes precedence over
// Text when both are set.
type ExplainRequest struct {
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

// ExplainResponse carries the explanation.
type ExplainResponse struct {
	Key         string `json:"key,omitempty"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}

// SegmentsResponse lists the rendered notes segments.
type SegmentsResponse struct {
	NotesVersion int64     `json:"notesVersion"`
	Segments     []Segment `json:"segments"`
}

// HighlightResponse reports the new highlight state of a segment.
type HighlightResponse struct {
	Key         string `json:"key"`
	Highlighted bool   `json:"highlighted"`
}

// AnnotationRequest is the body of PUT /api/annotations/{key}.
type AnnotationRequest struct {
	Text string `json:"text"`
}

// AnnotationResponse reports the stored annotation of a segment.
type AnnotationResponse struct {
	Key        string `json:"key"`
	Annotation string `json:"annotation"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
