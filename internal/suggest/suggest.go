// Package suggest guesses why a user picked up a book from the reasons they
// gave for earlier ones.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"tsundoku/internal/metrics"
)

const (
	recentReasonLimit = 5
	maxTokens         = 120
	descriptionRunes  = 400
)

var (
	// ErrUnavailable is returned when no API key is configured.
	ErrUnavailable = errors.New("reason suggestion is not configured")
	// ErrEmptyAnswer is returned when the model answers with blank text.
	ErrEmptyAnswer = errors.New("empty suggestion")
)

// Book is what the user is looking at.
type Book struct {
	Title       string
	Author      string
	Description string
}

// Completer is the chat completion call of the OpenAI client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ReasonSource yields a user's latest non-empty reasons, newest first.
type ReasonSource interface {
	RecentReasons(ctx context.Context, userID string, limit int) ([]string, error)
}

type Service struct {
	client  Completer
	model   string
	reasons ReasonSource
	log     logrus.FieldLogger
}

// NewService returns a service; client may be nil, in which case every
// prediction fails with ErrUnavailable.
func NewService(client Completer, model string, reasons ReasonSource, log logrus.FieldLogger) *Service {
	return &Service{client: client, model: model, reasons: reasons, log: log.WithField("component", "suggest")}
}

// NewOpenAIClient builds the client, or nil without an API key.
func NewOpenAIClient(apiKey, baseURL string) Completer {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Predict asks the model for a one-sentence reason in the user's own voice.
func (s *Service) Predict(ctx context.Context, userID string, b Book) (string, error) {
	if s.client == nil {
		return "", ErrUnavailable
	}

	past, err := s.reasons.RecentReasons(ctx, userID, recentReasonLimit)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("load past reasons")
		past = nil
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(b, past)},
		},
	})
	if err != nil {
		metrics.RecordExternalCall("openai", "degraded", time.Since(start))
		s.log.WithError(err).Warn("openai chat completion")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	metrics.RecordExternalCall("openai", "ok", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	answer = strings.Trim(answer, "「」\"")
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

const systemPrompt = "あなたは読書記録アプリのアシスタントです。ユーザーがその本を手に取った理由を、ユーザー本人の口調で一文（60文字以内）で推測してください。理由の文だけを返してください。"

// Prompt renders the user message sent to the model.
func Prompt(b Book, pastReasons []string) string {
	var sb strings.Builder
	sb.WriteString("本のタイトル: ")
	sb.WriteString(b.Title)
	sb.WriteString("\n")
	if b.Author != "" {
		sb.WriteString("著者: ")
		sb.WriteString(b.Author)
		sb.WriteString("\n")
	}
	if b.Description != "" {
		sb.WriteString("内容紹介: ")
		sb.WriteString(truncate(b.Description, descriptionRunes))
		sb.WriteString("\n")
	}
	if len(pastReasons) > 0 {
		sb.WriteString("\nこのユーザーが過去に書いた理由:\n")
		for _, r := range pastReasons {
			sb.WriteString("- ")
			sb.WriteString(r)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
