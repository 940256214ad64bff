package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

//go:generate mockgen -destination=mocks/completer.go -package=mocks . Completer

// Completer sends a single-turn prompt to a chat model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

type CompletionRequest struct {
	Model  string
	Prompt string
}

type CompletionResponse struct {
	Content string
	Model   string
	Usage   models.TokenUsage
}

type Client struct {
	client  *openai.Client
	timeout time.Duration
}

// NewClient builds an OpenAI chat client. baseURL may point at any
// OpenAI-compatible endpoint; empty means api.openai.com.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	logger.Info("LLM client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", timeout),
	)

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
	}
}

// Complete makes exactly one chat completion call. Failures are returned
// as-is; callers decide what a failure means.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	usage := models.NewTokenUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if resp.Usage.TotalTokens != usage.TotalTokens {
		logger.Warn("LLM reported inconsistent token total",
			zap.Int("reported_total", resp.Usage.TotalTokens),
			zap.Int("computed_total", usage.TotalTokens),
		)
	}

	logger.Debug("LLM completion generated",
		zap.String("model", req.Model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Int("choices", len(resp.Choices)),
	)

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	return &CompletionResponse{
		Content: content,
		Model:   model,
		Usage:   usage,
	}, nil
}
