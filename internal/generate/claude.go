package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator produces the two AI texts shown for a condition.
type Generator interface {
	Summary(ctx context.Context, disease string) (string, error)
	Details(ctx context.Context, disease string) (string, error)
	Model() string
}

// Messager is the subset of the Anthropic messages service used here.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// ClaudeGenerator calls the Anthropic Messages API.
type ClaudeGenerator struct {
	messages Messager
	model    string
	timeout  time.Duration
	backoff  func(attempt int) time.Duration
	log      *slog.Logger

	Stats *Stats
}

func NewClaudeGenerator(apiKey, model string, timeout time.Duration, stats *Stats, log *slog.Logger) *ClaudeGenerator {
	c := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return NewClaudeGeneratorWithMessager(&c.Messages, model, timeout, stats, log)
}

// NewClaudeGeneratorWithMessager builds a generator over an existing messages client.
func NewClaudeGeneratorWithMessager(m Messager, model string, timeout time.Duration, stats *Stats, log *slog.Logger) *ClaudeGenerator {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &ClaudeGenerator{
		messages: m,
		model:    model,
		timeout:  timeout,
		backoff:  Backoff,
		log:      log,
		Stats:    stats,
	}
}

func (g *ClaudeGenerator) Model() string {
	return g.model
}

// Summary returns a short plain-language overview of the condition.
func (g *ClaudeGenerator) Summary(ctx context.Context, disease string) (string, error) {
	return g.generate(ctx, KindSummary, BuildSummaryPrompt(disease), 512)
}

// Details returns the numbered, bold-headed breakdown of the condition.
func (g *ClaudeGenerator) Details(ctx context.Context, disease string) (string, error) {
	return g.generate(ctx, KindDetails, BuildDetailsPrompt(disease), 2048)
}

func (g *ClaudeGenerator) generate(ctx context.Context, kind Kind, prompt string, maxTokens int64) (string, error) {
	log := g.log.With("kind", kind, "model", g.model)

	var text string
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		text, lastErr = g.call(ctx, prompt, maxTokens)
		if g.Stats != nil {
			g.Stats.Record(kind, time.Since(start).Milliseconds(), lastErr)
		}
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(g.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("generate %s: %w", kind, lastErr)
	}
	return text, nil
}

func (g *ClaudeGenerator) call(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classify(ctx, err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classify wraps transient API failures in a RetryableError.
func classify(parent context.Context, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode), Err: err}
		}
		return err
	}
	// Per-call timeout fired while the caller's context is still live.
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return &RetryableError{Message: "request timed out", Err: err}
	}
	return err
}
