package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"pathfinder-backend/application/ports"
)

// LangChainCompleter adapts any langchaingo model
type LangChainCompleter struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

var _ ports.Completer = (*LangChainCompleter)(nil)

// NewLangChainOpenAI builds a langchaingo OpenAI-compatible model
func NewLangChainOpenAI(apiKey, baseURL, model string) (llms.Model, error) {
	opts := []lcopenai.Option{}
	if apiKey != "" {
		opts = append(opts, lcopenai.WithToken(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	if model != "" {
		opts = append(opts, lcopenai.WithModel(model))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain model: %w", err)
	}
	return m, nil
}

// NewLangChainCompleter creates a completer over model
func NewLangChainCompleter(model llms.Model, temperature float64, maxTokens int) *LangChainCompleter {
	return &LangChainCompleter{model: model, temperature: temperature, maxTokens: maxTokens}
}

func (c *LangChainCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
