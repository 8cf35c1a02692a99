package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/sowri347/bot-interview/internal/config"
)

// execEngine shells out to a local recognizer for each speech segment. The
// command receives --audio <wav> [--model <path>] [--language <code>] and must
// print {"text": "..."} on stdout.
type execEngine struct {
	cmd        []string
	modelPath  string
	sampleRate int
}

type execResult struct {
	Text string `json:"text"`
}

func NewExecEngine(cfg config.STTConfig) (Engine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return &execEngine{cmd: args, modelPath: cfg.ModelPath, sampleRate: rate}, nil
}

func (e *execEngine) SampleRate() int { return e.sampleRate }

func (e *execEngine) Close() error { return nil }

func (e *execEngine) TranscribeSegment(ctx context.Context, samples []float32, sampleRate int, language string) (string, error) {
	file, err := os.CreateTemp("", "interview_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := writeSamplesToWav(file, samples, sampleRate); err != nil {
		return "", err
	}

	cmdArgs := append([]string{}, e.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--audio", file.Name())
	if e.modelPath != "" {
		cmdArgs = append(cmdArgs, "--model", e.modelPath)
	}
	if language != "" {
		cmdArgs = append(cmdArgs, "--language", language)
	}

	command := exec.CommandContext(ctx, e.cmd[0], cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("stt command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	return resp.Text, nil
}
