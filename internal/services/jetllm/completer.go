// Package jetllm adapts the OpenAI and Anthropic SDKs to the llm.Completer
// contract through the go.jetify.com/ai provider layer.
//
// These backends send text only. The notes stage therefore extracts document
// text locally before calling them (SupportsAttachments reports false).
package jetllm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"

	"notewise/internal/services"
	"notewise/internal/services/llm"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultMaxOutputTokens = 4096
	jsonInstruction        = "Respond with a single JSON object and nothing else. Do not wrap it in code fences."
)

// Config selects the provider and model.
type Config struct {
	Provider        string
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
}

// Completer generates text through a jetify language model.
type Completer struct {
	model     jetapi.LanguageModel
	modelID   string
	maxTokens int
}

// New builds a Completer for the configured provider.
func New(cfg Config) (*Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jetllm", "init", "api key required", nil)
	}
	modelID := strings.TrimSpace(cfg.Model)
	if modelID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jetllm", "init", "model required", nil)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	var model jetapi.LanguageModel
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderAnthropic:
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(endpoint))
		}
		client := anthropicclient.NewClient(opts...)
		model = jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client))
	case ProviderOpenAI:
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, openaioption.WithBaseURL(endpoint))
		}
		client := openaiclient.NewClient(opts...)
		model = jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client))
	default:
		return nil, services.Wrap(services.ErrConfiguration, "jetllm", "init", fmt.Sprintf("unsupported provider %q", cfg.Provider), nil)
	}

	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	return &Completer{model: model, modelID: modelID, maxTokens: maxTokens}, nil
}

// Model returns the model identifier.
func (c *Completer) Model() string { return c.modelID }

// SupportsAttachments is false; callers inline document text instead.
func (c *Completer) SupportsAttachments() bool { return false }

// Complete sends the prompts and returns the JSON text of the response.
func (c *Completer) Complete(ctx context.Context, req llm.Request) (string, error) {
	op := strings.TrimSpace(req.Operation)
	if req.Attachment != nil {
		return "", services.Wrap(services.ErrValidation, "jetllm", op, "attachments are not supported by this backend", nil)
	}
	system := strings.TrimSpace(req.System)
	if system != "" {
		system += "\n\n" + jsonInstruction
	} else {
		system = jsonInstruction
	}

	resp, err := jetai.GenerateText(
		ctx,
		buildMessages(system, req.User),
		jetai.WithModel(c.model),
		jetai.WithMaxOutputTokens(c.maxTokens),
	)
	if err != nil {
		marker := services.ErrGeneration
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, "jetllm", op, "request failed", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", services.Wrap(services.ErrGeneration, "jetllm", op, "empty response", err)
	}
	sanitized, err := llm.SanitizeJSON(text)
	if err != nil {
		return "", services.Wrap(services.ErrGeneration, "jetllm", op, "response is not JSON", err)
	}
	return sanitized, nil
}

func buildMessages(system, user string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: system})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(user)})
	return messages
}

func responseText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("nil response")
	}
	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}
	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text blocks")
	}
	return text, nil
}
