package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sowri347/bot-interview/internal/config"
	"github.com/sowri347/bot-interview/internal/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Result is a scored answer.
type Result struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Evaluator scores transcripts with a language model. Backend failures
// degrade to DefaultScore with an error note instead of failing the call.
type Evaluator struct {
	generator llm.Generator
	cfg       config.LLMConfig
	timeout   time.Duration
	logger    *slog.Logger
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
}

func New(generator llm.Generator, cfg config.LLMConfig, logger *slog.Logger) *Evaluator {
	e := &Evaluator{
		generator: generator,
		cfg:       cfg,
		timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
		logger:    logger.With(slog.String("component", "evaluator")),
	}
	meter := otel.Meter("github.com/sowri347/bot-interview/evaluation")
	var err error
	if e.requests, err = meter.Int64Counter("interview.evaluation.requests",
		metric.WithDescription("Answer evaluations by outcome")); err != nil {
		e.logger.Warn("failed to create evaluation counter", slogError(err))
	}
	if e.latency, err = meter.Float64Histogram("interview.evaluation.latency",
		metric.WithDescription("Answer evaluation latency"), metric.WithUnit("s")); err != nil {
		e.logger.Warn("failed to create evaluation histogram", slogError(err))
	}
	return e
}

// Evaluate scores transcript, optionally against the question it answers.
func (e *Evaluator) Evaluate(ctx context.Context, transcript, questionText string) Result {
	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := llm.RequestFromConfig(e.cfg, BuildPrompt(transcript, questionText))
	reply, err := llm.Complete(ctx, e.generator, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", e.timeout)
		}
		e.logger.Warn("evaluation degraded", slogError(err))
		e.record(ctx, "degraded", time.Since(start))
		return Result{Score: DefaultScore, Feedback: "Evaluation error: " + err.Error()}
	}

	score, feedback := ParseReply(reply)
	e.logger.Debug("evaluation complete",
		slog.Int("score", score),
		slog.Int("transcript_chars", len(transcript)),
		slog.Duration("latency", time.Since(start)))
	e.record(ctx, "ok", time.Since(start))
	return Result{Score: score, Feedback: feedback}
}

func (e *Evaluator) record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	ctx = context.WithoutCancel(ctx)
	if e.requests != nil {
		e.requests.Add(ctx, 1, attrs)
	}
	if e.latency != nil {
		e.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
