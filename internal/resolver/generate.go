package resolver

import (
	"context"
	"fmt"

	"github.com/mantradev/mantra/internal/intent"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/textgen"
)

// goalEmotion labels generated lines so the pool stays browsable by
// mood alongside the curated catalog.
var goalEmotion = map[store.Goal]string{
	store.GoalSleep:     "restful",
	store.GoalCalm:      "grounded",
	store.GoalFocus:     "determined",
	store.GoalAbundance: "grateful",
}

// tryGenerate asks the model for fresh lines and persists them into the
// pool so later sessions can reuse them for free. When the model fails
// the session still completes on the static library, unpersisted and
// unbilled.
func (s *Service) tryGenerate(ctx context.Context, req Request) (*outcome, error) {
	gctx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	texts, err := s.generator.Lines(gctx, req.Goal, req.Intent, s.target)
	if err != nil {
		logger.Warn("generation failed, serving static fallback",
			"goal", string(req.Goal),
			"error", err.Error())
		return &outcome{
			tier:  store.TierFallback,
			texts: textgen.Fallback(req.Goal, s.target),
		}, nil
	}

	themes := intent.Themes(req.Intent, req.Goal)
	emotion := goalEmotion[req.Goal]

	ids := make([]string, 0, len(texts))
	for _, text := range texts {
		line, err := s.store.UpsertLine(&store.Line{
			Goal:    req.Goal,
			Text:    text,
			Tags:    themes,
			Emotion: emotion,
		})
		if err != nil {
			return nil, fmt.Errorf("persist generated line: %w", err)
		}
		ids = append(ids, line.ID)
	}

	return &outcome{
		tier:    store.TierGenerated,
		texts:   texts,
		lineIDs: ids,
	}, nil
}
