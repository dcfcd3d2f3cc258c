// Package llm submits generation prompts to a chat-completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/FranksOps/seoscribe/internal/prompt"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 3 * time.Minute
)

// ErrNoCompletion is returned when the endpoint answers without any choice.
var ErrNoCompletion = errors.New("no completion choices in response")

// Config configures the OpenAI generator.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Temperature <= 0 selects DefaultTemperature.
	Temperature float64
	// Timeout <= 0 selects DefaultTimeout.
	Timeout time.Duration
}

// OpenAI generates drafts through the OpenAI chat completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewOpenAI creates a generator. SDK-level retries are disabled so a failed
// call surfaces immediately.
func NewOpenAI(cfg Config, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// Model returns the configured model identifier.
func (o *OpenAI) Model() string { return o.model }

// Generate sends userPrompt with the fixed system message and returns the
// top choice's content verbatim.
func (o *OpenAI) Generate(ctx context.Context, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.SystemMessage),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", ErrNoCompletion)
	}

	o.logger.DebugContext(ctx, "chat completion finished",
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return resp.Choices[0].Message.Content, nil
}
