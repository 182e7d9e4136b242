package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/npepeverse/pepebot/internal/config"
)

func TestOpenAIProvider_Chat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ribbit"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("groq", "sk-test", srv.URL+"/", GroqDefaultModel)
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages:  []Message{{Role: "system", Content: "be a frog"}, {Role: "user", Content: "hi"}},
		MaxTokens: 50,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := &ChatResponse{Content: "ribbit", FinishReason: "stop", Usage: &Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response (-want +got):\n%s", diff)
	}
	if got["model"] != GroqDefaultModel {
		t.Errorf("model = %v", got["model"])
	}
	if got["max_tokens"] != float64(50) {
		t.Errorf("max_tokens = %v", got["max_tokens"])
	}
	msgs, _ := got["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Errorf("messages = %v", got["messages"])
	}
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("groq", "k", srv.URL, "m").Chat(context.Background(), ChatRequest{})
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if he.Status != http.StatusTooManyRequests || he.RetryAfter != 7*time.Second {
		t.Errorf("HTTPError = %+v", he)
	}
}

// stubProvider is a minimal Provider for completer and limiter tests.
type stubProvider struct {
	answer string
	err    error
	delay  time.Duration
	calls  int
	last   ChatRequest
}

func (s *stubProvider) Name() string         { return "stub" }
func (s *stubProvider) DefaultModel() string { return "stub-1" }
func (s *stubProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.calls++
	s.last = req
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{Content: s.answer}, nil
}

func TestCompleter_Complete(t *testing.T) {
	sp := &stubProvider{answer: "  wagmi fren \n"}
	c := NewCompleter(sp, "", time.Second, 100)
	got, err := c.Complete(context.Background(), "persona", "wen moon?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "wagmi fren" {
		t.Errorf("answer = %q", got)
	}
	want := []Message{{Role: "system", Content: "persona"}, {Role: "user", Content: "wen moon?"}}
	if diff := cmp.Diff(want, sp.last.Messages); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}
}

func TestCompleter_EmptyAnswerIsError(t *testing.T) {
	c := NewCompleter(&stubProvider{answer: "   "}, "", time.Second, 0)
	if _, err := c.Complete(context.Background(), "", "q"); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("err = %v, want ErrEmptyAnswer", err)
	}
}

func TestCompleter_Timeout(t *testing.T) {
	c := NewCompleter(&stubProvider{answer: "late", delay: time.Second}, "", 20*time.Millisecond, 0)
	start := time.Now()
	_, err := c.Complete(context.Background(), "", "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout not enforced")
	}
}

func TestLimited(t *testing.T) {
	sp := &stubProvider{answer: "ok"}
	p := NewLimited(sp, 2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := p.Chat(ctx, ChatRequest{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := p.Chat(ctx, ChatRequest{}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third call err = %v, want ErrRateLimited", err)
	}
	if sp.calls != 2 {
		t.Errorf("provider calls = %d, want 2", sp.calls)
	}
	if NewLimited(sp, 0) != Provider(sp) {
		t.Error("perMinute 0 should return provider unchanged")
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, config.LLMConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("no keys: err = %v", err)
	}
	if _, err := New(ctx, config.LLMConfig{Provider: "openai", GroqAPIKey: "g"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("explicit provider without key: err = %v", err)
	}
	p, err := New(ctx, config.LLMConfig{GroqAPIKey: "g", OpenAIAPIKey: "o"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "groq" {
		t.Errorf("auto-selected %q, want groq", p.Name())
	}
	p, err = New(ctx, config.LLMConfig{Provider: "OpenAI", OpenAIAPIKey: "o", RatePerMinute: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*Limited); !ok || p.Name() != "openai" {
		t.Errorf("got %T %q, want rate-limited openai", p, p.Name())
	}
	if _, err := New(ctx, config.LLMConfig{Provider: "claude", GroqAPIKey: "g"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
