package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Whisper talks to any OpenAI-compatible transcription endpoint; BaseURL
// selects e.g. Groq instead of OpenAI.
type Whisper struct {
	client openai.Client
	model  string
	name   string
}

func NewWhisper(apiKey, baseURL, model string, opts ...option.RequestOption) *Whisper {
	name := "whisper"
	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
		if strings.Contains(baseURL, "groq") {
			name = "whisper-groq"
		}
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &Whisper{client: openai.NewClient(append(base, opts...)...), model: model, name: name}
}

func (w *Whisper) Name() string { return w.name }

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(w.model),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
