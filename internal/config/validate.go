package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by ValidateLLM so commands that never call the model still run
// without an API key.
func (c *Config) Validate() error {
	if err := c.validateLLMShape(); err != nil {
		return err
	}
	if err := c.validateSummary(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		return errors.New("ingest.max_upload_bytes must be positive")
	}
	return nil
}

// ValidateLLM reports whether the LLM backend has the credentials it needs.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	envKey := "NOTEWISE_LLM_API_KEY"
	if defaults, ok := providerDefaults[c.LLM.Provider]; ok {
		envKey = defaults.envKey
	}
	return fmt.Errorf("llm.api_key is required. Set %s or NOTEWISE_LLM_API_KEY, or edit %s (create with 'notewise config init')", envKey, defaultPath)
}

func (c *Config) validateLLMShape() error {
	if _, ok := providerDefaults[c.LLM.Provider]; !ok {
		return fmt.Errorf("llm.provider %q is not supported (want openrouter, openai, or anthropic)", c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderOpenRouter && strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set for the openrouter provider")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSummary() error {
	if !slices.Contains([]string{"short", "medium", "comprehensive"}, c.Summary.DefaultLength) {
		return fmt.Errorf("summary.default_length %q must be short, medium, or comprehensive", c.Summary.DefaultLength)
	}
	if !slices.Contains([]string{"paragraph", "bullet_points"}, c.Summary.DefaultStyle) {
		return fmt.Errorf("summary.default_style %q must be paragraph or bullet_points", c.Summary.DefaultStyle)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
