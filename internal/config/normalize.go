package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeIngest()
	c.normalizeSummary()
	c.normalizeSpeech()
	c.normalizeCache()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("NOTEWISE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	provider := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	provider = strings.ReplaceAll(provider, "_", "-")
	if provider == "" {
		provider = defaultLLMProvider
	}
	c.LLM.Provider = provider

	defaults, known := providerDefaults[provider]
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		if value, ok := os.LookupEnv("NOTEWISE_LLM_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.LLM.APIKey = value
		} else if known {
			if value, ok := os.LookupEnv(defaults.envKey); ok {
				c.LLM.APIKey = value
			}
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" && known {
		c.LLM.BaseURL = defaults.baseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" && known {
		c.LLM.Model = defaults.model
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxOutputTokens <= 0 {
		c.LLM.MaxOutputTokens = defaultLLMMaxTokens
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = defaultLLMMaxAttempts
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.MaxUploadBytes <= 0 {
		c.Ingest.MaxUploadBytes = defaultMaxUploadBytes
	}
	c.Ingest.UniofficeLicenseKey = strings.TrimSpace(c.Ingest.UniofficeLicenseKey)
	if c.Ingest.UniofficeLicenseKey == "" {
		if value, ok := os.LookupEnv("UNIOFFICE_LICENSE_KEY"); ok {
			c.Ingest.UniofficeLicenseKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeSummary() {
	c.Summary.DefaultLength = strings.ToLower(strings.TrimSpace(c.Summary.DefaultLength))
	if c.Summary.DefaultLength == "" {
		c.Summary.DefaultLength = defaultSummaryLength
	}
	style := strings.ToLower(strings.TrimSpace(c.Summary.DefaultStyle))
	style = strings.ReplaceAll(style, "-", "_")
	if style == "bullets" {
		style = "bullet_points"
	}
	if style == "" {
		style = defaultSummaryStyle
	}
	c.Summary.DefaultStyle = style
}

func (c *Config) normalizeSpeech() {
	c.Speech.SynthesizeCommand = trimArgs(c.Speech.SynthesizeCommand)
	c.Speech.RecognizeCommand = trimArgs(c.Speech.RecognizeCommand)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
