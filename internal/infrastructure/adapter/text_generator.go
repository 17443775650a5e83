package adapter

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/loanpilot/loanpilot/internal/domain/port"
)

// ---------------------------------------------------------------------------
// Text generation
// ---------------------------------------------------------------------------

// OpenAIGenerator phrases messages through an OpenAI-compatible chat API.
// It implements port.TextGenerator.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates the generator. A custom base URL lets the same
// adapter front any OpenAI-compatible local model server.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate runs one chat completion.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens: 220,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelVersion names the configured model.
func (g *OpenAIGenerator) ModelVersion() string { return g.model }

// RuleBasedGenerator returns the deterministic template untouched. It is
// the generator of record when no LLM is configured.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator creates the generator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// Generate echoes the template.
func (g *RuleBasedGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	return userPrompt, nil
}

// ModelVersion reports the deterministic engine.
func (g *RuleBasedGenerator) ModelVersion() string { return "rule-based-v1" }

// FallbackTextGenerator decorates a primary generator with a silent
// fallback: when the primary fails, the secondary's output is served and
// the failure is only logged.
type FallbackTextGenerator struct {
	primary  port.TextGenerator
	fallback port.TextGenerator
	logger   *slog.Logger
}

// NewFallbackTextGenerator wires the chain.
func NewFallbackTextGenerator(primary, fallback port.TextGenerator, logger *slog.Logger) *FallbackTextGenerator {
	return &FallbackTextGenerator{primary: primary, fallback: fallback, logger: logger}
}

// Generate tries the primary and degrades to the fallback.
func (g *FallbackTextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := g.primary.Generate(ctx, systemPrompt, userPrompt)
	if err == nil && out != "" {
		return out, nil
	}
	if err != nil {
		g.logger.Warn("primary text generator failed, using fallback", "error", err)
	}
	return g.fallback.Generate(ctx, systemPrompt, userPrompt)
}

// ModelVersion reports the primary model.
func (g *FallbackTextGenerator) ModelVersion() string { return g.primary.ModelVersion() }
