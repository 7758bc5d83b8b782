package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mantradev/mantra/internal/store"
)

const defaultGeminiModel = "gemini-1.5-flash-latest"

type gemini struct {
	client *genai.Client
	model  string
}

func newGemini(cfg Config) (*gemini, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Lines(ctx context.Context, goal store.Goal, intentText string, n int) ([]string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	temp := float32(0.8)
	maxTokens := int32(512)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(goal, intentText, n)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	lines := parseLines(sb.String(), n)
	if len(lines) < n {
		return nil, fmt.Errorf("gemini returned %d usable lines, want %d", len(lines), n)
	}
	return lines, nil
}

func (g *gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
