package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// LLM contains the generative text backend settings shared by every flow.
type LLM struct {
	// Provider selects the backend: openrouter (default), openai, or anthropic.
	Provider        string `toml:"provider"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	Referer         string `toml:"referer"`
	Title           string `toml:"title"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxOutputTokens int    `toml:"max_output_tokens"`
	MaxAttempts     int    `toml:"max_attempts"`
}

// Ingest contains document ingestion limits and extractor settings.
type Ingest struct {
	MaxUploadBytes      int64  `toml:"max_upload_bytes"`
	UniofficeLicenseKey string `toml:"unioffice_license_key"`
}

// Summary contains the defaults applied when a run does not customize the summary.
type Summary struct {
	DefaultLength string `toml:"default_length"`
	DefaultStyle  string `toml:"default_style"`
}

// Speech configures the optional text-to-speech and speech-to-text commands.
// Empty commands leave the capability absent.
type Speech struct {
	SynthesizeCommand []string `toml:"synthesize_command"`
	RecognizeCommand  []string `toml:"recognize_command"`
}

// Cache controls memoization of derived artifacts by notes digest.
type Cache struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// Notifications configures ntfy push notifications for finished runs.
// An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for NoteWise.
//
// Configuration sections by subsystem:
//   - Paths: session database location, logs, and API bind address
//   - LLM: provider, model, credentials, and per-call timeout
//   - Ingest: upload limits and DOCX extractor license
//   - Summary: default length and style
//   - Speech: optional synthesis/recognition commands
//   - Cache: derived artifact memoization
//   - Notifications: ntfy topic for run results
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	LLM     LLM     `toml:"llm"`
	Ingest  Ingest  `toml:"ingest"`
	Summary Summary `toml:"summary"`
	Speech  Speech  `toml:"speech"`
	Cache   Cache   `toml:"cache"`

	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("notewise.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionDBPath returns the SQLite file backing session state.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Paths.DataDir, "notewise.db")
}

// LockPath returns the lock file guarding a single API server per data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "notewise.lock")
}

// CallTimeout is the bound applied to every external LLM call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// NotifyTimeout bounds a single notification request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// CacheTTL is how long derived artifacts stay memoized.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig is the resolved connection settings handed to an LLM backend.
type LLMConfig struct {
	Provider        string
	APIKey          string
	BaseURL         string
	Model           string
	Referer         string
	Title           string
	TimeoutSeconds  int
	MaxOutputTokens int
	MaxAttempts     int
}

// GetLLM returns the LLM connection settings with surrounding whitespace removed.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:        strings.TrimSpace(c.LLM.Provider),
		APIKey:          strings.TrimSpace(c.LLM.APIKey),
		BaseURL:         strings.TrimSpace(c.LLM.BaseURL),
		Model:           strings.TrimSpace(c.LLM.Model),
		Referer:         strings.TrimSpace(c.LLM.Referer),
		Title:           strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds:  c.LLM.TimeoutSeconds,
		MaxOutputTokens: c.LLM.MaxOutputTokens,
		MaxAttempts:     c.LLM.MaxAttempts,
	}
}
