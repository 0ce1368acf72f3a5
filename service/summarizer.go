package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leejason2025/audiostudio/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// Input bounds keep prompts inside the model's context window.
	minSummaryInput = 50
	maxSummaryInput = 100000

	summaryMaxTokens   = 500
	summaryTemperature = 0.3

	summarySystemPrompt = "You are a helpful assistant that creates concise, accurate summaries of text content."
)

// Summarizer condenses transcripts through the chat-completion API.
type Summarizer struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewSummarizer creates the summarization port. Extra request options are
// applied after the defaults so tests can redirect the client.
func NewSummarizer(cfg *config.OpenAIConfig, opts ...option.RequestOption) *Summarizer {
	options := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &Summarizer{
		client:  openai.NewClient(options...),
		model:   cfg.ChatModel,
		timeout: requestTimeout(cfg),
	}
}

// Summarize returns a concise summary of text. Bounds violations and
// provider failures come back as *CapabilityError values.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", newCapabilityError(KindTooShort, "Text cannot be empty", nil)
	}

	length := utf8.RuneCountInString(text)
	if length < minSummaryInput {
		return "", newCapabilityError(KindTooShort,
			fmt.Sprintf("Text is too short for summarization (minimum %d characters)", minSummaryInput), nil)
	}
	if length > maxSummaryInput {
		return "", newCapabilityError(KindTooLong,
			fmt.Sprintf("Text is too long for summarization (maximum %d characters)", maxSummaryInput), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt),
			openai.UserMessage(summaryPrompt(text)),
		},
		MaxTokens:   openai.Int(summaryMaxTokens),
		Temperature: openai.Float(summaryTemperature),
	})
	if err != nil {
		return "", classifyProviderError(err, "Text is too large for processing", "Summarization failed")
	}

	if len(completion.Choices) == 0 {
		return "Unable to generate summary - no content returned.", nil
	}

	summary := strings.TrimSpace(completion.Choices[0].Message.Content)
	if summary == "" {
		return "Unable to generate summary - no content returned.", nil
	}
	return summary, nil
}

// ValidateCredentials checks the key with a minimal one-token completion.
func (s *Summarizer) ValidateCredentials(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		MaxTokens: openai.Int(5),
	})
	if err != nil {
		slog.Error("API key validation failed", "error", err)
		return false
	}
	return true
}

func summaryPrompt(text string) string {
	return fmt.Sprintf(`Please provide a concise summary of the following text. Focus on capturing the main points, key ideas, and important details. The summary should be clear, well-organized, and significantly shorter than the original text while preserving the essential information.

Text to summarize:
%s

Summary:`, text)
}
