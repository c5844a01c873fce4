package triviacards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Explainer asks a chat model for background on a revealed answer
type Explainer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewExplainer creates an explainer from the explain config section
func NewExplainer(cfg ExplainConfig) (*Explainer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("explain: api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &Explainer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Explain returns a short explanation of why the answer fits the question
func (e *Explainer) Explain(ctx context.Context, episode Episode, q Question) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	prompt := e.buildPrompt(episode, q)
	log.Debug().Str("episode", string(episode)).Str("number", q.Number).Str("prompt", prompt).Msg("explain request")

	resp, err := e.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: e.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a trivia host. Explain answers to quiz questions in two or three sentences of plain text.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to explain answer: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", e.model)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug().Str("number", q.Number).Str("response", text).Msg("explain response")
	if text == "" {
		return "", fmt.Errorf("empty explanation from %s", e.model)
	}
	return text, nil
}

func (e *Explainer) buildPrompt(episode Episode, q Question) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Quiz show episode: %s\n", episode.DisplayName()))
	sb.WriteString(fmt.Sprintf("Question %s: %s\n", q.Number, q.Question))
	sb.WriteString(fmt.Sprintf("Answer: %s\n\n", q.Answer))
	sb.WriteString("Explain why this is the answer. Do not repeat the question.\n")

	return sb.String()
}
