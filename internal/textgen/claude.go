package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mantradev/mantra/internal/store"
)

const (
	defaultClaudeModel = "claude-sonnet-4-20250514"
	maxRetries         = 3
	baseDelay          = 2 * time.Second
)

type claude struct {
	client anthropic.Client
	model  string
}

func newClaude(cfg Config) *claude {
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &claude{
		client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:  model,
	}
}

func (c *claude) Lines(ctx context.Context, goal store.Goal, intentText string, n int) ([]string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(goal, intentText, n))),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemInstruction},
		},
	}

	var resp *anthropic.Message
	var err error
	for attempt := range maxRetries {
		resp, err = c.client.Messages.New(ctx, params)
		if err == nil {
			break
		}
		if !isRetryableError(err) {
			return nil, err
		}
		if attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt))
		}
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	lines := parseLines(sb.String(), n)
	if len(lines) < n {
		return nil, fmt.Errorf("claude returned %d usable lines, want %d", len(lines), n)
	}
	return lines, nil
}

func isRetryableError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "Overloaded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "502")
}

func (c *claude) Close() error { return nil }
