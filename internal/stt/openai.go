package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultOpenAIEndpoint = "https://api.openai.com"

// openAITranscriber calls a hosted /v1/audio/transcriptions endpoint.
type openAITranscriber struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewOpenAITranscriber(endpoint, apiKey, model string, client *http.Client) Transcriber {
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	if model == "" {
		model = "whisper-1"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &openAITranscriber{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   client,
	}
}

func (o *openAITranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", o.model); err != nil {
		return "", Failure(err)
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return "", Failure(err)
	}
	if languageHint != "" {
		if err := mw.WriteField("language", languageHint); err != nil {
			return "", Failure(err)
		}
	}
	fw, err := mw.CreateFormFile("file", audioFilename(audio))
	if err != nil {
		return "", Failure(err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", Failure(err)
	}
	if err := mw.Close(); err != nil {
		return "", Failure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", Failure(err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return "", Failure(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", Failure(fmt.Errorf("read transcription response: %w", err))
	}
	if resp.StatusCode >= 300 {
		return "", Failure(fmt.Errorf("transcription api returned %s: %s", resp.Status, strings.TrimSpace(string(payload))))
	}
	return strings.TrimSpace(string(payload)), nil
}
