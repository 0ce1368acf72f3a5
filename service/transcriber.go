package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leejason2025/audiostudio/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultRequestTimeout = 120 * time.Second

// audioExts are the formats the transcription backend accepts.
var audioExts = []string{".mp3", ".wav", ".m4a", ".flac"}

// Transcriber converts staged audio files to text through the Whisper API.
type Transcriber struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewTranscriber creates the transcription port. Extra request options are
// applied after the defaults, which lets tests point the client at a mock
// server. Retries stay off: a processing attempt runs at most once.
func NewTranscriber(cfg *config.OpenAIConfig, opts ...option.RequestOption) *Transcriber {
	options := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Transcriber{
		client:  openai.NewClient(options...),
		model:   cfg.WhisperModel,
		timeout: requestTimeout(cfg),
	}
}

// Transcribe runs the audio file at path through Whisper and returns the
// trimmed transcript. Failures come back as *CapabilityError values.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newCapabilityError(KindNotFound, fmt.Sprintf("Audio file not found: %s", path), err)
		}
		return "", newCapabilityError(KindUnknown, fmt.Sprintf("Transcription failed: %v", err), err)
	}

	if !supportedAudioFormat(path) {
		return "", newCapabilityError(KindUnsupportedFormat, fmt.Sprintf("Unsupported audio format: %s", path), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", newCapabilityError(KindUnknown, fmt.Sprintf("Transcription failed: %v", err), err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	transcript, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  f,
	})
	if err != nil {
		return "", classifyProviderError(err, "Audio file is too large for processing", "Transcription failed")
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return "No speech detected in the audio file.", nil
	}
	return text, nil
}

// ValidateCredentials reports whether the configured key can reach the
// API at all.
func (t *Transcriber) ValidateCredentials(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.client.Models.List(ctx); err != nil {
		slog.Error("API key validation failed", "error", err)
		return false
	}
	return true
}

func supportedAudioFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range audioExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

func requestTimeout(cfg *config.OpenAIConfig) time.Duration {
	if cfg.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// classifyProviderError maps OpenAI API failures onto capability error
// kinds. The 413 message differs between audio and text payloads, and
// unclassified errors keep the caller's operation name as prefix.
func classifyProviderError(err error, tooLargeMsg, unknownPrefix string) *CapabilityError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401:
			return newCapabilityError(KindUnauthorized, "Invalid OpenAI API key", err)
		case apiErr.StatusCode == 429:
			return newCapabilityError(KindRateLimited, "OpenAI API rate limit exceeded. Please try again later.", err)
		case apiErr.StatusCode == 413:
			return newCapabilityError(KindPayloadTooLarge, tooLargeMsg, err)
		case apiErr.StatusCode >= 500:
			return newCapabilityError(KindServiceUnavailable, "OpenAI API service is temporarily unavailable", err)
		}
	}
	return newCapabilityError(KindUnknown, fmt.Sprintf("%s: %v", unknownPrefix, err), err)
}
