package config

const (
	defaultConfigPath        = "~/.config/notewise/config.toml"
	defaultDataDir           = "~/.local/share/notewise"
	defaultLogDir            = "~/.local/share/notewise/logs"
	defaultAPIBind           = "127.0.0.1:7490"
	defaultLLMProvider       = ProviderOpenRouter
	defaultLLMTimeoutSeconds = 90
	defaultLLMMaxTokens      = 4096
	defaultLLMMaxAttempts    = 3
	defaultLLMReferer        = "https://github.com/notewise/notewise"
	defaultLLMTitle          = "NoteWise"
	defaultMaxUploadBytes    = 20 << 20
	defaultSummaryLength     = "medium"
	defaultSummaryStyle      = "paragraph"
	defaultCacheTTLSeconds   = 3600
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Supported LLM providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
)

var providerDefaults = map[string]struct {
	baseURL string
	model   string
	envKey  string
}{
	ProviderOpenRouter: {"https://openrouter.ai/api/v1/chat/completions", "google/gemini-2.5-flash", "OPENROUTER_API_KEY"},
	ProviderOpenAI:     {"", "gpt-4o-mini", "OPENAI_API_KEY"},
	ProviderAnthropic:  {"", "claude-haiku-4-5-20251001", "ANTHROPIC_API_KEY"},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		LLM: LLM{
			Provider:        defaultLLMProvider,
			Referer:         defaultLLMReferer,
			Title:           defaultLLMTitle,
			TimeoutSeconds:  defaultLLMTimeoutSeconds,
			MaxOutputTokens: defaultLLMMaxTokens,
			MaxAttempts:     defaultLLMMaxAttempts,
		},
		Ingest: Ingest{
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Summary: Summary{
			DefaultLength: defaultSummaryLength,
			DefaultStyle:  defaultSummaryStyle,
		},
		Cache: Cache{
			Enabled:    true,
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
