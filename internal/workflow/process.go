package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notewise/internal/ingest"
	"notewise/internal/logging"
	"notewise/internal/notes"
	"notewise/internal/notifications"
	"notewise/internal/services"
	"notewise/internal/sessionstore"
	"notewise/internal/stage"
	"notewise/internal/stageexec"
	"notewise/internal/study"
)

const emptyNotesMessage = "Failed to obtain notes content for processing."

// Ingest loads a file and processes it. An unsupported file leaves the
// session untouched; a DOCX extraction failure resets it to an empty
// file-mode input.
func (s *Session) Ingest(ctx context.Context, name, declaredType string, r io.Reader, opts study.SummaryOptions) (RunResult, error) {
	ctx = s.contextFor(ctx)
	input, err := s.loader.Load(ctx, name, declaredType, r)
	if err != nil {
		if errors.Is(err, services.ErrExtraction) {
			s.resetForInput(ctx, ingest.Input{Mode: ingest.ModeFile, Source: name})
		}
		s.recordError(err)
		return RunResult{}, err
	}
	return s.Process(ctx, input, opts)
}

// Process resets the session for input, produces NotesText, and runs the
// generators. Only a missing NotesText fails the run; generator failures are
// reported as Notices. A run superseded by newer input returns
// services.ErrStaleResult and stores nothing.
func (s *Session) Process(ctx context.Context, input ingest.Input, opts study.SummaryOptions) (RunResult, error) {
	ctx = s.contextFor(ctx)
	opts = s.summaryDefaults(opts)

	done := s.begin(OpProcessing)
	defer done()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	runCtx, gen := s.resetForInput(ctx, input)
	defer s.finishRun(gen)
	logger := logging.WithContext(runCtx, s.logger)
	start := time.Now()
	logger.Info("processing started",
		logging.EventType("run_start"),
		logging.String("input_mode", string(input.Mode)),
		logging.String("source", input.Source),
	)

	text, err := s.notesStage(runCtx, input)
	if s.stale(gen) {
		return RunResult{}, s.staleError(logger, "notes")
	}
	if err != nil {
		s.recordError(err)
		logging.WarnWithContext(logger, "notes stage failed", "run_failed",
			logging.ErrorKind(err),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no notes or study artifacts for this input"),
			logging.String(logging.FieldErrorHint, "check llm settings and retry"),
		)
		s.notify(ctx, logger, notifications.EventRunFailed, notifications.Payload{"source": input.Source, "error": services.UserMessage(err)})
		return RunResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		err := services.Wrap(services.ErrGeneration, "workflow", "notes", emptyNotesMessage, nil)
		s.recordError(err)
		s.notify(ctx, logger, notifications.EventRunFailed, notifications.Payload{"source": input.Source, "error": emptyNotesMessage})
		return RunResult{}, err
	}

	version, ok := s.setNotes(runCtx, gen, text)
	if !ok {
		return RunResult{}, s.staleError(logger, "notes")
	}
	logger = logger.With(logging.NotesVersion(version))

	result := s.fanOut(runCtx, text, opts)
	result.RunID = runID
	result.NotesVersion = version
	result.Notes = text

	if !s.commit(runCtx, gen, version, &result) {
		return RunResult{}, s.staleError(logger, "artifacts")
	}
	result.Duration = time.Since(start)
	logger.Info("processing completed",
		logging.EventType("run_complete"),
		logging.Int("notices", len(result.Notices)),
		logging.Duration("duration", result.Duration),
	)
	s.notify(ctx, logger, notifications.EventRunCompleted, notifications.Payload{"source": input.Source, "notices": len(result.Notices)})
	return result, nil
}

// notify publishes a run event. Delivery failures never fail the run.
func (s *Session) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := s.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// summaryDefaults fills blank option fields from the session defaults.
func (s *Session) summaryDefaults(opts study.SummaryOptions) study.SummaryOptions {
	if opts.Length == "" {
		opts.Length = s.summaryOpts.Length
	}
	if opts.Style == "" {
		opts.Style = s.summaryOpts.Style
	}
	return opts.Normalized()
}

// resetForInput clears all session state for a new input, bumps the input
// generation, and cancels the previous run.
func (s *Session) resetForInput(ctx context.Context, input ingest.Input) (context.Context, uint64) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.cancelRun = cancel
	s.generation++
	gen := s.generation
	s.version++
	s.notesText = ""
	s.digest = ""
	s.source = input.Source
	s.inputMode = input.Mode
	if s.inputMode == "" {
		s.inputMode = ingest.ModeFile
	}
	s.clearDerivedLocked()
	s.persistNotesLocked(ctx)
	s.mu.Unlock()
	return runCtx, gen
}

// finishRun releases the run context if gen is still the current run.
func (s *Session) finishRun(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen && s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
}

func (s *Session) clearDerivedLocked() {
	s.summary, s.flashcards, s.concepts = nil, nil, nil
	s.notices = nil
	s.history = nil
	s.lastErr = nil
	s.marks.Reset()
}

func (s *Session) snapshotLocked() sessionstore.Snapshot {
	return sessionstore.Snapshot{
		SessionID: s.sessionID,
		NotesText: s.notesText,
		Version:   s.version,
		Digest:    s.digest,
		Source:    s.source,
		InputMode: string(s.inputMode),
	}
}

// persistNotesLocked writes NotesText while mu is held so that concurrent
// runs reach the store in generation order.
func (s *Session) persistNotesLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveNotes(context.WithoutCancel(ctx), s.snapshotLocked()); err != nil {
		s.warnPersistence(ctx, "save notes", err)
	}
}

func (s *Session) notesStage(ctx context.Context, input ingest.Input) (string, error) {
	if input.Mode != ingest.ModeFile {
		return input.Text, nil
	}
	if input.Document == nil {
		return "", nil
	}
	ctx = services.WithStage(ctx, "notes")
	return s.service.Notes(ctx, input.Document)
}

// setNotes stores NotesText under a new version unless the run is stale.
func (s *Session) setNotes(ctx context.Context, gen uint64, text string) (int64, bool) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return 0, false
	}
	s.version++
	s.notesText = text
	s.digest = notes.Digest(text)
	s.clearDerivedLocked()
	s.persistNotesLocked(ctx)
	version := s.version
	s.mu.Unlock()
	return version, true
}

func (s *Session) fanOut(ctx context.Context, text string, opts study.SummaryOptions) RunResult {
	type branch struct {
		op  Operation
		gen stage.Generator
	}
	branches := []branch{
		{OpSummary, stage.SummaryStage{Service: s.service, Options: opts}},
		{OpFlashcards, stage.FlashcardsStage{Service: s.service}},
		{OpConcepts, stage.KeyConceptsStage{Service: s.service}},
	}
	results := make([]stageexec.Result, len(branches))

	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := s.begin(b.op)
			defer done()
			results[i] = stageexec.Run(ctx, stageexec.Options{
				Logger:    s.logger,
				Generator: b.gen,
				Timeout:   s.stageTimeout,
				Notes:     text,
			})
		}()
	}
	wg.Wait()

	result := RunResult{
		Summary:    outcomeFrom[study.Summary](results[0]),
		Flashcards: outcomeFrom[study.FlashcardSet](results[1]),
		Concepts:   outcomeFrom[study.KeyConceptSet](results[2]),
	}
	for _, res := range results {
		if res.Err != nil {
			result.Notices = append(result.Notices, Notice{
				Stage:   res.Stage,
				Kind:    services.Kind(res.Err),
				Message: services.UserMessage(res.Err),
			})
		}
	}
	return result
}

// commit stores the run's artifacts unless newer input has arrived. A branch
// that failed drops the artifact it would have replaced, so a regenerated
// session never serves output built with earlier options.
func (s *Session) commit(ctx context.Context, gen uint64, version int64, result *RunResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.version != version {
		return false
	}
	persist := context.WithoutCancel(ctx)
	save := func(kind string, value any) {
		if s.store == nil {
			return
		}
		if err := s.store.PutArtifact(persist, kind, version, value); err != nil {
			s.warnPersistence(ctx, "save "+kind, err)
		}
	}
	drop := func(kind string) {
		if s.store == nil {
			return
		}
		if err := s.store.DeleteArtifact(persist, kind); err != nil {
			s.warnPersistence(ctx, "delete "+kind, err)
		}
	}
	if result.Summary.OK() {
		v := result.Summary.Value
		s.summary = &v
		save(sessionstore.ArtifactSummary, v)
	} else {
		s.summary = nil
		drop(sessionstore.ArtifactSummary)
	}
	if result.Flashcards.OK() {
		v := result.Flashcards.Value
		s.flashcards = &v
		save(sessionstore.ArtifactFlashcards, v)
	} else {
		s.flashcards = nil
		drop(sessionstore.ArtifactFlashcards)
	}
	if result.Concepts.OK() {
		v := result.Concepts.Value
		s.concepts = &v
		save(sessionstore.ArtifactConcepts, v)
	} else {
		s.concepts = nil
		drop(sessionstore.ArtifactConcepts)
	}
	s.notices = append([]Notice(nil), result.Notices...)
	return true
}

// Regenerate reruns the generators against the current NotesText, for
// example with different summary options.
func (s *Session) Regenerate(ctx context.Context, opts study.SummaryOptions) (RunResult, error) {
	ctx = s.contextFor(ctx)
	opts = s.summaryDefaults(opts)

	s.mu.Lock()
	text, version, gen := s.notesText, s.version, s.generation
	s.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return RunResult{}, services.Wrap(services.ErrPrecondition, "workflow", "regenerate",
			"Notes are not available. Please process a document or text first.", nil)
	}

	done := s.begin(OpProcessing)
	defer done()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	start := time.Now()
	result := s.fanOut(ctx, text, opts)
	result.RunID = runID
	result.NotesVersion = version
	result.Notes = text
	if !s.commit(ctx, gen, version, &result) {
		return RunResult{}, s.staleError(logging.WithContext(ctx, s.logger), "artifacts")
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Reset discards all session state and starts a new session identity.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.generation++
	s.version = 0
	s.notesText = ""
	s.digest = ""
	s.source = ""
	s.inputMode = ingest.ModeFile
	s.clearDerivedLocked()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Reset(ctx); err != nil {
			return services.Wrap(services.ErrConfiguration, "workflow", "reset", "Could not reset the saved session", err)
		}
		snap, err := s.store.Load(ctx)
		if err == nil {
			s.mu.Lock()
			s.sessionID = snap.SessionID
			s.mu.Unlock()
			return nil
		}
		s.warnPersistence(ctx, "reload session", err)
	}
	s.mu.Lock()
	s.sessionID = uuid.NewString()
	s.mu.Unlock()
	return nil
}

func (s *Session) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

func (s *Session) staleError(logger *slog.Logger, step string) error {
	logger.Info("discarding stale result",
		logging.EventType("run_superseded"),
		logging.String("step", step),
	)
	return services.Wrap(services.ErrStaleResult, "workflow", step,
		"The input changed while processing; results were discarded.", nil)
}
