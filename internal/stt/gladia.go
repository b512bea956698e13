package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const defaultGladiaURL = "https://api.gladia.io/audio/text/audio-transcription/"

type Gladia struct {
	APIKey     string
	URL        string
	HTTPClient *http.Client
}

func NewGladia(apiKey string) *Gladia {
	return &Gladia{APIKey: apiKey, URL: defaultGladiaURL, HTTPClient: &http.Client{}}
}

func (g *Gladia) Name() string { return "gladia" }

func (g *Gladia) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url(), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-gladia-key", g.APIKey)

	resp, err := g.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gladia returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return parseGladia(payload)
}

type segment struct {
	Transcription string `json:"transcription"`
}

type gladiaResponse struct {
	Prediction    []segment `json:"prediction"`
	PredictionRaw *struct {
		Transcription []segment `json:"transcription"`
	} `json:"prediction_raw"`
	Result *struct {
		Transcription string `json:"transcription"`
	} `json:"result"`
	Transcription string `json:"transcription"`
	Text          string `json:"text"`
}

// parseGladia accepts every response layout the service has used.
func parseGladia(payload []byte) (string, error) {
	var resp gladiaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode gladia response: %w", err)
	}
	var text string
	switch {
	case len(resp.Prediction) > 0:
		text = joinSegments(resp.Prediction)
	case resp.PredictionRaw != nil && len(resp.PredictionRaw.Transcription) > 0:
		text = joinSegments(resp.PredictionRaw.Transcription)
	case resp.Result != nil && resp.Result.Transcription != "":
		text = resp.Result.Transcription
	case resp.Transcription != "":
		text = resp.Transcription
	default:
		text = resp.Text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyTranscription
	}
	return text, nil
}

func joinSegments(segments []segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Transcription != "" {
			parts = append(parts, s.Transcription)
		}
	}
	return strings.Join(parts, " ")
}

func (g *Gladia) url() string {
	if g.URL != "" {
		return g.URL
	}
	return defaultGladiaURL
}

func (g *Gladia) client() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}
