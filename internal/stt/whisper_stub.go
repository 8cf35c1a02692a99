//go:build !whisper

package stt

import "fmt"

// NewWhisperEngine requires building with -tags whisper and libwhisper.
func NewWhisperEngine(modelPath string) (Engine, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags whisper to load %s", errEngineUnavailable, modelPath)
}
