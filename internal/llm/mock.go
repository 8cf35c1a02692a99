package llm

import (
	"context"
	"time"
)

// MockReply is what the mock generator answers to every prompt.
const MockReply = "SCORE: 7\nFEEDBACK: The answer covers the main points clearly.\nAdd a concrete example to make it stronger."

type mockGenerator struct {
	delay time.Duration
}

func NewMockGenerator() Generator { return &mockGenerator{delay: 20 * time.Millisecond} }

func (m *mockGenerator) Generate(ctx context.Context, req Request, consumer func(Chunk) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
	}
	return consumer(Chunk{
		Content: MockReply,
		Partial: false,
		Latency: m.delay,
	})
}
