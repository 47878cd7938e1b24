package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"notewise/internal/config"
	"notewise/internal/ingest"
	"notewise/internal/logging"
	"notewise/internal/notifications"
	"notewise/internal/sessionstore"
	"notewise/internal/speech"
	"notewise/internal/study"
	"notewise/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the in-process workflow for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sessionstore.Store
	session *workflow.Session
}

func (a *app) close() {
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Debug("close session", logging.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Debug("close session store", logging.Error(err))
		}
	}
}

// openApp restores the persisted session. Commands log to the log file only
// so stdout stays reserved for results.
func (c *commandContext) openApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger, err = fileLogger(cfg)
		if err != nil {
			return nil, err
		}
	}

	store, err := sessionstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	service := newStudyService(cfg, logger)

	defaults := study.SummaryOptions{
		Length: study.SummaryLength(cfg.Summary.DefaultLength),
		Style:  study.SummaryStyle(cfg.Summary.DefaultStyle),
	}
	session := workflow.New(service,
		workflow.WithStore(store),
		workflow.WithLoader(ingest.NewLoader(cfg.Ingest.MaxUploadBytes, cfg.Ingest.UniofficeLicenseKey, logger)),
		workflow.WithLogger(logger),
		workflow.WithSummaryDefaults(defaults),
		workflow.WithSpeech(speech.Detect(cfg.Speech, logger)),
		workflow.WithNotifier(notifications.NewService(cfg)),
	)
	a := &app{cfg: cfg, logger: logger, store: store, session: session}
	if err := session.Restore(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return a, nil
}

func (c *commandContext) withSession(cmd *cobra.Command, fn func(*app) error) error {
	a, err := c.openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func fileLogger(cfg *config.Config) (*slog.Logger, error) {
	if strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return logging.NewNop(), nil
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.FileName)
	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  "json",
		Outputs: []string{logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
