package main

import (
	"context"
	"log/slog"

	"notewise/internal/config"
	"notewise/internal/ingest"
	"notewise/internal/services"
	"notewise/internal/services/jetllm"
	"notewise/internal/services/llm"
	"notewise/internal/study"
)

// newStudyService builds the study backend. Tests replace it with a scripted
// completer.
var newStudyService = buildStudyService

func buildStudyService(cfg *config.Config, logger *slog.Logger) study.Service {
	if err := cfg.ValidateLLM(); err != nil {
		return unconfiguredService{err: services.Wrap(services.ErrConfiguration, "cli", "llm", err.Error(), err)}
	}
	completer, explainer, err := buildCompleters(cfg)
	if err != nil {
		return unconfiguredService{err: err}
	}
	return wrapService(cfg, study.NewGenerator(completer,
		study.WithExplainer(explainer),
		study.WithCallTimeout(cfg.CallTimeout()),
		study.WithLogger(logger),
	))
}

func wrapService(cfg *config.Config, gen *study.Generator) study.Service {
	if cfg.Cache.Enabled {
		return study.NewCachedGenerator(gen, cfg.CacheTTL())
	}
	return gen
}

// buildCompleters returns the main completer and a single-attempt explainer.
func buildCompleters(cfg *config.Config) (llm.Completer, llm.Completer, error) {
	llmCfg := cfg.GetLLM()
	switch llmCfg.Provider {
	case config.ProviderOpenAI, config.ProviderAnthropic:
		completer, err := jetllm.New(jetllm.Config{
			Provider:        llmCfg.Provider,
			APIKey:          llmCfg.APIKey,
			BaseURL:         llmCfg.BaseURL,
			Model:           llmCfg.Model,
			MaxOutputTokens: llmCfg.MaxOutputTokens,
		})
		if err != nil {
			return nil, nil, err
		}
		return completer, completer, nil
	default:
		clientCfg := llm.Config{
			APIKey:          llmCfg.APIKey,
			BaseURL:         llmCfg.BaseURL,
			Model:           llmCfg.Model,
			Referer:         llmCfg.Referer,
			Title:           llmCfg.Title,
			TimeoutSeconds:  llmCfg.TimeoutSeconds,
			MaxOutputTokens: llmCfg.MaxOutputTokens,
		}
		completer := llm.NewClient(clientCfg, llm.WithRetryMaxAttempts(llmCfg.MaxAttempts))
		explainer := llm.NewClient(clientCfg, llm.WithRetryMaxAttempts(1))
		return completer, explainer, nil
	}
}

// unconfiguredService fails every model call with the configuration error so
// commands that only read session state still work without credentials.
type unconfiguredService struct {
	err error
}

func (u unconfiguredService) Notes(context.Context, *ingest.Document) (string, error) {
	return "", u.err
}

func (u unconfiguredService) Summarize(context.Context, string, study.SummaryOptions) (study.Summary, error) {
	return study.Summary{}, u.err
}

func (u unconfiguredService) Flashcards(context.Context, string) (study.FlashcardSet, error) {
	return study.FlashcardSet{}, u.err
}

func (u unconfiguredService) KeyConcepts(context.Context, string) (study.KeyConceptSet, error) {
	return study.KeyConceptSet{}, u.err
}

func (u unconfiguredService) Answer(context.Context, string, string) (string, error) {
	return "", u.err
}

func (u unconfiguredService) Explain(context.Context, string) (string, error) {
	return "", u.err
}
