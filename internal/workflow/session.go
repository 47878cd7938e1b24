package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notewise/internal/annotations"
	"notewise/internal/ingest"
	"notewise/internal/logging"
	"notewise/internal/notes"
	"notewise/internal/notifications"
	"notewise/internal/services"
	"notewise/internal/sessionstore"
	"notewise/internal/speech"
	"notewise/internal/study"
)

const defaultStageTimeout = 3 * time.Minute

// Session coordinates one study session. All state updates go through mu;
// model calls run outside the lock against snapshots of NotesText.
type Session struct {
	service      study.Service
	store        *sessionstore.Store
	loader       *ingest.Loader
	logger       *slog.Logger
	stageTimeout time.Duration
	summaryOpts  study.SummaryOptions
	speech       *speech.Session
	notifier     notifications.Service
	segments     notes.Cache

	mu         sync.Mutex
	sessionID  string
	notesText  string
	version    int64
	digest     string
	source     string
	inputMode  ingest.Mode
	generation uint64
	cancelRun  context.CancelFunc

	summary    *study.Summary
	flashcards *study.FlashcardSet
	concepts   *study.KeyConceptSet
	notices    []Notice
	history    []sessionstore.QA
	marks      *annotations.State
	busy       map[Operation]int
	lastErr    error
}

// Option configures a Session.
type Option func(*Session)

// WithStore persists the session.
func WithStore(store *sessionstore.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithLoader sets the loader used by Ingest.
func WithLoader(loader *ingest.Loader) Option {
	return func(s *Session) { s.loader = loader }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logging.NewComponentLogger(logger, "workflow") }
}

// WithStageTimeout bounds each generator branch.
func WithStageTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.stageTimeout = d
		}
	}
}

// WithSummaryDefaults sets the options used when a run does not specify them.
func WithSummaryDefaults(opts study.SummaryOptions) Option {
	return func(s *Session) { s.summaryOpts = opts.Normalized() }
}

// WithSpeech attaches detected speech capabilities. The session owns the
// resulting speech.Session and closes it in Close.
func WithSpeech(caps speech.Capabilities) Option {
	return func(s *Session) { s.speech = speech.NewSession(caps) }
}

// WithNotifier publishes run results.
func WithNotifier(n notifications.Service) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New constructs an empty in-memory session. Call Restore to load persisted
// state from an attached store.
func New(service study.Service, opts ...Option) *Session {
	s := &Session{
		service:      service,
		logger:       logging.NewComponentLogger(nil, "workflow"),
		stageTimeout: defaultStageTimeout,
		summaryOpts:  study.SummaryOptions{}.Normalized(),
		sessionID:    uuid.NewString(),
		inputMode:    ingest.ModeFile,
		notifier:     notifications.NewService(nil),
		marks:        annotations.New(),
		busy:         make(map[Operation]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = ingest.NewLoader(0, "", s.logger)
	}
	if s.speech == nil {
		s.speech = speech.NewSession(speech.Capabilities{})
	}
	return s
}

// Restore loads NotesText, the artifacts of its version, the Q&A history,
// highlights, and annotations from the store.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "restore", "Could not load the saved session", err)
	}

	var (
		summary    study.Summary
		flashcards study.FlashcardSet
		concepts   study.KeyConceptSet
	)
	hasSummary, err := s.store.GetArtifact(ctx, sessionstore.ArtifactSummary, snap.Version, &summary)
	if err != nil {
		s.warnPersistence(ctx, "load summary", err)
	}
	hasCards, err := s.store.GetArtifact(ctx, sessionstore.ArtifactFlashcards, snap.Version, &flashcards)
	if err != nil {
		s.warnPersistence(ctx, "load flashcards", err)
	}
	hasConcepts, err := s.store.GetArtifact(ctx, sessionstore.ArtifactConcepts, snap.Version, &concepts)
	if err != nil {
		s.warnPersistence(ctx, "load concepts", err)
	}
	highlights, discardedHighlights, err := s.store.LoadHighlights(ctx)
	if err != nil {
		s.warnPersistence(ctx, "load highlights", err)
	}
	notesMarks, discardedAnnotations, err := s.store.LoadAnnotations(ctx)
	if err != nil {
		s.warnPersistence(ctx, "load annotations", err)
	}
	if discardedHighlights || discardedAnnotations {
		logging.WarnWithContext(s.logger, "discarded unreadable annotation payload", "annotations_discarded",
			logging.Bool("highlights", discardedHighlights),
			logging.Bool("annotations", discardedAnnotations),
			logging.String(logging.FieldImpact, "previous highlights or annotations were reset"),
			logging.String(logging.FieldErrorHint, "re-apply highlights and annotations"),
		)
	}
	history, err := s.store.History(ctx)
	if err != nil {
		s.warnPersistence(ctx, "load history", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = snap.SessionID
	s.notesText = snap.NotesText
	s.version = snap.Version
	s.digest = snap.Digest
	s.source = snap.Source
	s.inputMode = ingest.Mode(snap.InputMode)
	if s.inputMode == "" {
		s.inputMode = ingest.ModeFile
	}
	s.summary, s.flashcards, s.concepts = nil, nil, nil
	if hasSummary {
		s.summary = &summary
	}
	if hasCards {
		s.flashcards = &flashcards
	}
	if hasConcepts {
		s.concepts = &concepts
	}
	s.history = history
	s.marks = annotations.Restore(highlights, notesMarks)
	s.logger.Debug("session restored",
		logging.String(logging.FieldSessionID, s.sessionID),
		logging.NotesVersion(s.version),
		logging.Bool("has_notes", strings.TrimSpace(s.notesText) != ""),
	)
	return nil
}

// Close cancels any in-flight run and releases the speech session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.mu.Unlock()
	return s.speech.Close()
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Speech returns the session's speech capability.
func (s *Session) Speech() *speech.Session { return s.speech }

// Notes returns the current NotesText and its version.
func (s *Session) Notes() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesText, s.version
}

// Summary returns the latest summary, if any.
func (s *Session) Summary() (study.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return study.Summary{}, false
	}
	return *s.summary, true
}

// Flashcards returns the latest flashcard set, if any.
func (s *Session) Flashcards() (study.FlashcardSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flashcards == nil {
		return study.FlashcardSet{}, false
	}
	return *s.flashcards, true
}

// KeyConcepts returns the latest key-concept set, if any.
func (s *Session) KeyConcepts() (study.KeyConceptSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.concepts == nil {
		return study.KeyConceptSet{}, false
	}
	return *s.concepts, true
}

// History returns the questions asked about the current NotesText.
func (s *Session) History() []sessionstore.QA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sessionstore.QA(nil), s.history...)
}

func (s *Session) contextFor(ctx context.Context) context.Context {
	s.mu.Lock()
	id := s.sessionID
	s.mu.Unlock()
	return services.WithSessionID(ctx, id)
}

func (s *Session) begin(op Operation) func() {
	s.mu.Lock()
	s.busy[op]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if s.busy[op] > 0 {
			s.busy[op]--
		}
		s.mu.Unlock()
	}
}

func (s *Session) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Session) warnPersistence(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "session persistence failed", "session_store_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldImpact, "in-memory session continues; state may not survive a restart"),
		logging.String(logging.FieldErrorHint, "check data_dir permissions and disk space"),
	)
}
