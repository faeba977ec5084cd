package ai

import "context"

// Sampling configuration passed explicitly per call so stages stay testable
// with substitute backends; nothing is read from ambient process state.
type Sampling struct {
	Temperature float32
	MaxTokens   int
}

// Request is a single text-completion exchange with an inference service.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Sampling     Sampling
}

// Client port: returns raw, untrusted text. No guarantee on output shape.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Model identifies the configured model, for recording on results.
	Model() string
}
