package stt

import (
	"context"
	"errors"
	"log/slog"
)

// ErrTranscription matches every TranscriptionError via errors.Is.
var ErrTranscription = errors.New("transcription failed")

// Transcriber converts uploaded audio into text. An empty transcript is a
// valid result for silent input.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

// TranscriptionError reports that the backend could not process the audio.
type TranscriptionError struct {
	Cause error
}

func (e *TranscriptionError) Error() string {
	if e.Cause == nil {
		return ErrTranscription.Error()
	}
	return ErrTranscription.Error() + ": " + e.Cause.Error()
}

func (e *TranscriptionError) Unwrap() error { return e.Cause }

func (e *TranscriptionError) Is(target error) bool { return target == ErrTranscription }

// Failure wraps err as a TranscriptionError unless it already is one.
func Failure(err error) error {
	if err == nil || errors.Is(err, ErrTranscription) {
		return err
	}
	return &TranscriptionError{Cause: err}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
