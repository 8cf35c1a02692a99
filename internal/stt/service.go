package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sowri347/bot-interview/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// New builds the backend selected by cfg.Mode.
func New(cfg config.STTConfig) (Transcriber, error) {
	switch cfg.Mode {
	case "mock", "":
		return NewMockTranscriber(), nil
	case "openai":
		return NewOpenAITranscriber(cfg.Endpoint, cfg.APIKey, cfg.Model, &http.Client{}), nil
	case "exec":
		engine, err := NewExecEngine(cfg)
		if err != nil {
			return nil, err
		}
		return NewLocal(engine, VADFromConfig(cfg), cfg.Language), nil
	case "whisper":
		engine, err := NewWhisperEngine(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return NewLocal(engine, VADFromConfig(cfg), cfg.Language), nil
	default:
		return nil, fmt.Errorf("unknown stt mode %q", cfg.Mode)
	}
}

// Service bounds every backend call with a timeout and records metrics.
type Service struct {
	backend  Transcriber
	mode     string
	timeout  time.Duration
	logger   *slog.Logger
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewService(backend Transcriber, mode string, timeout time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		backend: backend,
		mode:    mode,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "stt-service")),
	}
	meter := otel.Meter("github.com/sowri347/bot-interview/stt")
	var err error
	if s.requests, err = meter.Int64Counter("interview.stt.requests",
		metric.WithDescription("Transcription requests by outcome")); err != nil {
		s.logger.Warn("failed to create stt counter", slogError(err))
	}
	if s.latency, err = meter.Float64Histogram("interview.stt.latency",
		metric.WithDescription("Transcription latency"), metric.WithUnit("s")); err != nil {
		s.logger.Warn("failed to create stt histogram", slogError(err))
	}
	return s
}

func (s *Service) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	text, err := s.backend.Transcribe(ctx, audio, languageHint)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &TranscriptionError{Cause: fmt.Errorf("timed out after %s: %w", s.timeout, context.DeadlineExceeded)}
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		err = Failure(err)
		s.logger.Warn("transcription failed",
			slog.String("mode", s.mode),
			slog.Int("bytes", len(audio)),
			slogError(err))
	} else {
		s.logger.Debug("transcription complete",
			slog.String("mode", s.mode),
			slog.Int("bytes", len(audio)),
			slog.Int("chars", len(text)))
	}
	s.record(ctx, outcome, time.Since(start))
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("mode", s.mode), attribute.String("outcome", outcome))
	ctx = context.WithoutCancel(ctx)
	if s.requests != nil {
		s.requests.Add(ctx, 1, attrs)
	}
	if s.latency != nil {
		s.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// Close releases the backend when it holds resources such as a loaded model.
func (s *Service) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
