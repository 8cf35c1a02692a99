package stt

import (
	"context"
	"fmt"
)

type mockTranscriber struct{}

func NewMockTranscriber() Transcriber {
	return &mockTranscriber{}
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Failure(err)
	}
	if len(audio) == 0 {
		return "", nil
	}
	lang := languageHint
	if lang == "" {
		lang = "auto"
	}
	return fmt.Sprintf("[mock transcript lang=%s length=%d]", lang, len(audio)), nil
}
