package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/careexpand/jira-insights/internal/common"
	"github.com/careexpand/jira-insights/internal/config"
	log "github.com/careexpand/jira-insights/internal/logging"
)

// Client defines the interface for the text-generation collaborator.
// It is a pure (systemPrompt, userPrompt) -> text call; callers own
// all fallback behavior when it errors or returns nothing.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// langchainClient implements Client using langchain-go
type langchainClient struct {
	llm         llms.Model
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient creates a new LLM client based on the provided configuration
func NewClient(cfg *config.Config) (Client, error) {
	var llmModel llms.Model
	var err error

	switch cfg.LLMProvider {
	case "openai":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
	case "azure":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.LLMServiceURL),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &langchainClient{
		llm:         llmModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
		timeout:     time.Duration(cfg.LLMTimeout) * time.Second,
	}, nil
}

// Complete sends the prompt pair to the LLM and returns the completion
func (c *langchainClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.llm == nil {
		return "", errors.New("LLM client not initialized")
	}

	log.Debugf("Sending prompt to LLM: %s", common.Truncate(userPrompt, 500))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}

	completion := resp.Choices[0].Content
	log.Debugf("Received response from LLM: %s", common.Truncate(completion, 500))
	return completion, nil
}
