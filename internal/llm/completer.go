package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/npepeverse/pepebot/internal/llm")

// Completer turns a Provider into a single system+user completion call with a
// hard deadline.
type Completer struct {
	provider  Provider
	model     string
	timeout   time.Duration
	maxTokens int
}

// NewCompleter wraps p. timeout <= 0 means 15s.
func NewCompleter(p Provider, model string, timeout time.Duration, maxTokens int) *Completer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Completer{provider: p, model: model, timeout: timeout, maxTokens: maxTokens}
}

// Name reports the backing provider.
func (c *Completer) Name() string { return c.provider.Name() }

// Complete sends system and user messages and returns the trimmed answer.
// An empty answer is an error.
func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "llm.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", c.provider.Name()))

	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	msgs = append(msgs, Message{Role: "user", Content: user})

	start := time.Now()
	resp, err := c.provider.Chat(ctx, ChatRequest{Messages: msgs, Model: c.model, MaxTokens: c.maxTokens})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		span.SetStatus(codes.Error, "empty answer")
		return "", fmt.Errorf("%s: %w", c.provider.Name(), ErrEmptyAnswer)
	}
	if resp.Usage != nil {
		span.SetAttributes(attribute.Int("llm.total_tokens", resp.Usage.TotalTokens))
	}
	slog.Debug("llm: completion", "provider", c.provider.Name(), "duration", time.Since(start), "chars", len(answer))
	return answer, nil
}
