package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mantradev/mantra/internal/store"
)

func TestOpenAILinesRequestAndParse(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": "1. I settle into this evening.\n2. My breath grows longer.\n3. I am done striving for today.",
				},
			}},
		})
	}))
	defer srv.Close()

	g := newOpenAI(Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})
	lines, err := g.Lines(context.Background(), store.GoalSleep, "too much screen time", 3)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}

	want := []string{
		"I settle into this evening.",
		"My breath grows longer.",
		"I am done striving for today.",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}

	if got.Model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", got.Model, defaultOpenAIModel)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v, want system then user", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "too much screen time") {
		t.Errorf("user prompt missing intent: %q", got.Messages[1].Content)
	}
}

func TestOpenAILinesTooFewIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"content": "Only one line."},
			}},
		})
	}))
	defer srv.Close()

	g := newOpenAI(Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})
	if _, err := g.Lines(context.Background(), store.GoalCalm, "", 6); err == nil {
		t.Error("short response accepted, want error")
	}
}

func TestOpenAILinesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	g := newOpenAI(Config{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})
	_, err := g.Lines(context.Background(), store.GoalFocus, "", 6)
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("error = %v, want status included", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	g, err := New(Config{Provider: "claude", AnthropicAPIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("New claude: %v", err)
	}
	if _, ok := g.(*claude); !ok {
		t.Errorf("claude provider = %T, want *claude", g)
	}

	g, err = New(Config{Provider: "openai", OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if _, ok := g.(*openai); !ok {
		t.Errorf("openai provider = %T, want *openai", g)
	}

	if _, err := New(Config{Provider: "llama.cpp"}); err == nil {
		t.Error("unknown provider accepted, want error")
	}
}
