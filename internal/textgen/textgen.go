// Package textgen generates fresh affirmation lines with an LLM.
//
// Providers: Gemini (default), Claude, and any OpenAI-compatible chat
// completions endpoint. A static per-goal library backs all of them so
// callers always have lines to fall back on when generation fails.
package textgen

import (
	"context"
	"fmt"
	"time"

	"github.com/mantradev/mantra/internal/store"
)

// Generator produces affirmation lines for one goal and stated intent.
type Generator interface {
	// Lines returns exactly n lines or an error. Fewer usable lines than
	// requested is treated as a failed generation.
	Lines(ctx context.Context, goal store.Goal, intentText string, n int) ([]string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// Config selects and configures a generation provider.
type Config struct {
	Provider string // "gemini" (default), "claude", or "openai"
	Model    string

	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string

	Timeout time.Duration
}

// New creates the generator named by cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case "", "gemini":
		return newGemini(cfg)
	case "claude":
		return newClaude(cfg), nil
	case "openai":
		return newOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown textgen provider %q", cfg.Provider)
	}
}
