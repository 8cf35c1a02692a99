package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sowri347/bot-interview/internal/config"
)

// Request describes a language model prompt.
type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

// Chunk represents streamed model output.
type Chunk struct {
	Content          string
	Partial          bool
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator defines a pluggable LLM backend. Backends that do not stream
// deliver a single final chunk.
type Generator interface {
	Generate(ctx context.Context, req Request, consumer func(Chunk) error) error
}

// RequestFromConfig fills generation defaults from config.
func RequestFromConfig(cfg config.LLMConfig, prompt string) Request {
	return Request{Prompt: prompt, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
}

// Complete runs req to completion and returns the concatenated content.
func Complete(ctx context.Context, g Generator, req Request) (string, error) {
	var b strings.Builder
	err := g.Generate(ctx, req, func(c Chunk) error {
		b.WriteString(c.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
