package generate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeMessager struct {
	replies []fakeReply
	calls   int
	params  []anthropic.MessageNewParams
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, params)
	r := f.replies[min(f.calls, len(f.replies)-1)]
	f.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: r.text}},
	}, nil
}

func newTestGenerator(m Messager) *ClaudeGenerator {
	g := NewClaudeGeneratorWithMessager(m, "test-model", time.Second, NewStats(time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.backoff = func(int) time.Duration { return 0 }
	return g
}

func TestClaudeGenerator_Summary(t *testing.T) {
	m := &fakeMessager{replies: []fakeReply{{text: "  Influenza is a viral infection.  "}}}
	g := newTestGenerator(m)

	got, err := g.Summary(context.Background(), "influenza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Influenza is a viral infection." {
		t.Errorf("expected trimmed summary, got %q", got)
	}
	if len(m.params) != 1 {
		t.Fatalf("expected 1 call, got %d", len(m.params))
	}
	if string(m.params[0].Model) != "test-model" {
		t.Errorf("expected model test-model, got %q", m.params[0].Model)
	}
	if m.params[0].MaxTokens != 512 {
		t.Errorf("expected summary max tokens 512, got %d", m.params[0].MaxTokens)
	}
}

func TestClaudeGenerator_DetailsRetriesTransientErrors(t *testing.T) {
	m := &fakeMessager{replies: []fakeReply{
		{err: &anthropic.Error{StatusCode: 529}},
		{err: &anthropic.Error{StatusCode: 429}},
		{text: "1. **Overview:** Common."},
	}}
	g := newTestGenerator(m)

	got, err := g.Details(context.Background(), "influenza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1. **Overview:** Common." {
		t.Errorf("unexpected details %q", got)
	}
	if m.calls != 3 {
		t.Errorf("expected 3 calls, got %d", m.calls)
	}
	snap := g.Stats.Snapshot()[KindDetails]
	if snap.Calls != 3 || snap.Failures != 2 {
		t.Errorf("expected calls=3 failures=2, got %+v", snap)
	}
}

func TestClaudeGenerator_GivesUpAfterMaxRetries(t *testing.T) {
	m := &fakeMessager{replies: []fakeReply{{err: &anthropic.Error{StatusCode: 503}}}}
	g := newTestGenerator(m)

	_, err := g.Summary(context.Background(), "influenza")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Errorf("expected wrapped retryable error, got %v", err)
	}
	if m.calls != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, m.calls)
	}
}

func TestClaudeGenerator_NonRetryableStopsImmediately(t *testing.T) {
	m := &fakeMessager{replies: []fakeReply{{err: errors.New("invalid request")}}}
	g := newTestGenerator(m)

	_, err := g.Details(context.Background(), "influenza")
	if err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Fatalf("expected invalid request error, got %v", err)
	}
	if m.calls != 1 {
		t.Errorf("expected 1 call, got %d", m.calls)
	}
}

func TestClaudeGenerator_EmptyResponse(t *testing.T) {
	m := &fakeMessager{replies: []fakeReply{{text: "   "}}}
	g := newTestGenerator(m)

	_, err := g.Summary(context.Background(), "influenza")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClassify_TimeoutIsRetryable(t *testing.T) {
	err := classify(context.Background(), context.DeadlineExceeded)
	if !IsRetryable(err) {
		t.Errorf("expected per-call timeout to be retryable, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if IsRetryable(classify(ctx, context.DeadlineExceeded)) {
		t.Error("expected timeout after caller cancellation not to be retryable")
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt := range 6 {
		d := Backoff(attempt)
		if d < time.Second || d > 15*time.Second {
			t.Errorf("attempt %d: backoff %s out of range", attempt, d)
		}
	}
}

func TestMaxCallDuration_CoversRetries(t *testing.T) {
	timeout := 90 * time.Second
	got := MaxCallDuration(timeout)
	if want := MaxRetries*timeout + (MaxRetries-1)*15*time.Second; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	for attempt := range MaxRetries {
		if Backoff(attempt) > 15*time.Second {
			t.Fatalf("backoff for attempt %d exceeds the assumed bound", attempt)
		}
	}
	if got <= MaxRetries*timeout {
		t.Errorf("expected %s to exceed the summed attempt timeouts", got)
	}
}

func TestBuildDetailsPrompt_ListsSections(t *testing.T) {
	p := BuildDetailsPrompt("asthma")
	if !strings.Contains(p, `"asthma"`) {
		t.Error("expected quoted disease name in prompt")
	}
	for i, s := range DetailSections {
		if !strings.Contains(p, s) {
			t.Errorf("section %d (%q) missing from prompt", i, s)
		}
	}
	if !strings.Contains(p, "1. **Overview:**") {
		t.Error("expected heading convention example in prompt")
	}
}
