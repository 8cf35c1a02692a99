package stt

import (
	"math"
	"time"

	"github.com/sowri347/bot-interview/internal/config"
)

// VADConfig tunes the energy based voice activity detector used by the local
// backends.
type VADConfig struct {
	FrameDuration time.Duration
	Threshold     float64
	MinSilence    time.Duration
	MinSpeech     time.Duration
}

// VADFromConfig applies defaults for unset fields.
func VADFromConfig(cfg config.STTConfig) VADConfig {
	v := VADConfig{
		FrameDuration: 30 * time.Millisecond,
		Threshold:     cfg.VADThreshold,
		MinSilence:    time.Duration(cfg.MinSilenceMS) * time.Millisecond,
		MinSpeech:     time.Duration(cfg.MinSpeechMS) * time.Millisecond,
	}
	if v.Threshold <= 0 {
		v.Threshold = 0.01
	}
	return v
}

// Span is a half open range of sample indices.
type Span struct {
	Start int
	End   int
}

// DetectSpeech returns the voiced spans of samples. Pauses shorter than
// MinSilence are bridged and spans shorter than MinSpeech are dropped.
func DetectSpeech(samples []float32, sampleRate int, cfg VADConfig) []Span {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}
	frameLen := int(int64(sampleRate) * int64(cfg.FrameDuration) / int64(time.Second))
	if frameLen < 1 {
		frameLen = 1
	}

	var raw []Span
	inSpeech := false
	var start int
	for offset := 0; offset < len(samples); offset += frameLen {
		end := offset + frameLen
		if end > len(samples) {
			end = len(samples)
		}
		voiced := rms(samples[offset:end]) >= cfg.Threshold
		switch {
		case voiced && !inSpeech:
			inSpeech = true
			start = offset
		case !voiced && inSpeech:
			inSpeech = false
			raw = append(raw, Span{Start: start, End: offset})
		}
	}
	if inSpeech {
		raw = append(raw, Span{Start: start, End: len(samples)})
	}

	minSilence := samplesFor(cfg.MinSilence, sampleRate)
	var merged []Span
	for _, sp := range raw {
		if n := len(merged); n > 0 && sp.Start-merged[n-1].End < minSilence {
			merged[n-1].End = sp.End
			continue
		}
		merged = append(merged, sp)
	}

	minSpeech := samplesFor(cfg.MinSpeech, sampleRate)
	out := merged[:0]
	for _, sp := range merged {
		if sp.End-sp.Start >= minSpeech {
			out = append(out, sp)
		}
	}
	return out
}

func samplesFor(d time.Duration, sampleRate int) int {
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

func rms(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
