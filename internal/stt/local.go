package stt

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Engine runs speech recognition on one mono speech segment.
type Engine interface {
	TranscribeSegment(ctx context.Context, samples []float32, sampleRate int, language string) (string, error)
	SampleRate() int
	io.Closer
}

// Local runs a process-local engine behind voice activity filtering. The
// engine is built once and shared; calls into it are serialized.
type Local struct {
	engine   Engine
	vad      VADConfig
	language string
	mu       sync.Mutex
}

func NewLocal(engine Engine, vad VADConfig, language string) *Local {
	return &Local{engine: engine, vad: vad, language: language}
}

func (l *Local) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	samples, rate, err := decodeWAV(audio)
	if err != nil {
		return "", Failure(err)
	}
	if len(samples) == 0 {
		return "", nil
	}
	target := l.engine.SampleRate()
	samples = resample(samples, rate, target)

	spans := DetectSpeech(samples, target, l.vad)
	if len(spans) == 0 {
		return "", nil
	}
	lang := languageHint
	if lang == "" {
		lang = l.language
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	parts := make([]string, 0, len(spans))
	for _, sp := range spans {
		if err := ctx.Err(); err != nil {
			return "", Failure(err)
		}
		text, err := l.engine.TranscribeSegment(ctx, samples[sp.Start:sp.End], target, lang)
		if err != nil {
			return "", Failure(err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close releases the engine.
func (l *Local) Close() error {
	if l.engine == nil {
		return nil
	}
	return l.engine.Close()
}

var errEngineUnavailable = errors.New("local speech engine not available in this build")
