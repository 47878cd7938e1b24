package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"notewise/internal/config"
	"notewise/internal/deps"
	"notewise/internal/services/llm"
)

const llmCheckName = "LLM"

// CheckLLM verifies that an OpenRouter-compatible endpoint is reachable and
// the key is valid. It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: llmCheckName, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: llmCheckName, Detail: summarizeLLMError(err)}
	}
	return Result{Name: llmCheckName, Passed: true, Detail: "API reachable"}
}

// CheckLLMFromConfig evaluates the configured backend. Only the openrouter
// provider is checked over the network, and only when live is set.
func CheckLLMFromConfig(ctx context.Context, cfg *config.Config, live bool) Result {
	if cfg == nil {
		return Result{Name: llmCheckName, Detail: "Unknown"}
	}
	llmCfg := cfg.GetLLM()
	if llmCfg.APIKey == "" {
		return Result{Name: llmCheckName, Detail: fmt.Sprintf("%s: API key missing", llmCfg.Provider)}
	}
	if live && llmCfg.Provider == config.ProviderOpenRouter {
		return CheckLLM(ctx, llmCfg)
	}
	return Result{Name: llmCheckName, Passed: true, Detail: fmt.Sprintf("%s (%s) configured", llmCfg.Provider, llmCfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the optional speech commands for the given config.
// Both the server and the CLI status command use this so the requirement list
// lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.SpeechRequirements(cfg.Speech))
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
