package wompbot

import (
	"context"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAIClient defines the OpenAI API operations used by the bot,
// to enable mocking in tests. The 'real' implementation is
// [openai.Client].
type OpenAIClient interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// OpenAI wraps the OpenAI client with a request rate limiter and
// the configured model.
type OpenAI struct {
	client OpenAIClient
	config *OpenAIConfig
	logger *slog.Logger

	// requestLimiter throttles chat completion requests across all users,
	// per [RuntimeConfig.OpenAIMaxRequestsPerSecond]
	requestLimiter *rate.Limiter
}

func newOpenAI(b *WompBot, httpClient *openai.ClientConfig) *OpenAI {
	config := b.config.OpenAI

	var client OpenAIClient
	if httpClient != nil {
		client = openai.NewClientWithConfig(*httpClient)
	} else {
		client = openai.NewClient(config.Token)
	}

	maxRequestsPerSecond := b.RuntimeConfig().OpenAIMaxRequestsPerSecond
	if maxRequestsPerSecond <= 0 {
		maxRequestsPerSecond = DefaultOpenAIMaxRequestsPerSecond
	}

	return &OpenAI{
		client: client,
		config: config,
		logger: b.logger.With(loggerNameKey, "openai"),
		requestLimiter: rate.NewLimiter(
			rate.Limit(maxRequestsPerSecond),
			maxRequestsPerSecond,
		),
	}
}

// setMaxRequestsPerSecond adjusts the request limiter, used when the
// runtime config is updated.
func (c *OpenAI) setMaxRequestsPerSecond(n int) {
	if n <= 0 {
		return
	}
	c.requestLimiter.SetLimit(rate.Limit(n))
	c.requestLimiter.SetBurst(n)
}

// createChatCompletion waits for the rate limiter, then executes a chat
// completion request for the given prompt.
func (c *OpenAI) createChatCompletion(
	ctx context.Context,
	systemPrompt string,
	prompt string,
) (openai.ChatCompletionResponse, error) {
	if err := c.requestLimiter.Wait(ctx); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(
			messages,
			openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
		)
	}
	messages = append(
		messages,
		openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	)

	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	}
	c.logger.InfoContext(
		ctx,
		"sending chat completion request",
		"model", req.Model,
	)
	return c.client.CreateChatCompletion(ctx, req)
}
