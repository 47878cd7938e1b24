package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"notewise/internal/logging"
	"notewise/internal/services"
	"notewise/internal/stage"
)

// Options controls one generator branch.
type Options struct {
	Logger    *slog.Logger
	Generator stage.Generator
	// Timeout bounds the branch. Zero leaves only the parent deadline.
	Timeout time.Duration
	Notes   string
}

// Result is the outcome of one branch. Exactly one of Value and Err is set.
type Result struct {
	Stage    string
	Value    any
	Err      error
	Duration time.Duration
}

// Run executes one generator under a bounded deadline. Failures, including
// panics, are classified and returned in Result rather than propagated.
func Run(ctx context.Context, opts Options) Result {
	if opts.Generator == nil {
		return Result{Err: services.Wrap(services.ErrConfiguration, "stageexec", "run", "stage generator unavailable", nil)}
	}
	name := opts.Generator.Name()
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, opts.Logger)

	runCtx := stageCtx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(stageCtx, opts.Timeout)
		defer cancel()
	}

	logger.Info("stage started",
		logging.EventType("stage_start"),
		logging.Int("notes_chars", len(opts.Notes)),
	)
	start := time.Now()
	value, err := invoke(runCtx, opts.Generator, opts.Notes)
	result := Result{Stage: name, Duration: time.Since(start)}

	if err != nil {
		result.Err = classify(runCtx, ctx, name, err)
		logging.WarnWithContext(logger, "stage failed", "stage_failure",
			logging.Duration("duration", result.Duration),
			logging.ErrorKind(result.Err),
			logging.String("error_message", services.UserMessage(result.Err)),
			logging.Error(result.Err),
			logging.String(logging.FieldImpact, name+" unavailable; other artifacts unaffected"),
			logging.String(logging.FieldErrorHint, "rerun processing or check llm settings"),
		)
		return result
	}

	result.Value = value
	logger.Info("stage completed",
		logging.EventType("stage_complete"),
		logging.Duration("duration", result.Duration),
	)
	return result
}

func invoke(ctx context.Context, gen stage.Generator, notes string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return gen.Generate(ctx, notes)
}

// classify ensures every branch error carries a services marker. A branch
// deadline becomes ErrTimeout; parent cancellation is reported as-is.
func classify(runCtx, parent context.Context, name string, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, "stageexec", name, name+" timed out", err)
	}
	if services.Kind(err) == "internal" {
		return services.Wrap(services.ErrGeneration, "stageexec", name, "Could not generate "+name, err)
	}
	return err
}
