package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
)

// Client adapts any OpenAI-compatible completion endpoint (vLLM, LocalAI,
// llama.cpp server, or OpenAI itself) to the inference port. Useful when the
// local models are served behind an OpenAI-style gateway instead of Ollama.
type Client struct {
	inner *openai.Client
	model string
}

func New(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{inner: openai.NewClientWithConfig(cfg), model: model}
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Sampling.Temperature,
		MaxTokens:   req.Sampling.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
	}

	resp, err := c.inner.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var netErr net.Error
		var apiErr *openai.APIError
		switch {
		case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
		case errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500):
			return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
