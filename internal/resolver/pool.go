package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

// ErrNoCandidate means the pool could not field enough usable lines for
// this request and the resolver must fall through to generation.
var ErrNoCandidate = errors.New("not enough eligible lines in the pool")

// Rank blends theme overlap with listener ratings. Unrated lines count
// as neutral so new material is not buried under old favorites.
const (
	overlapWeight = 0.7
	ratingWeight  = 0.3
	neutralRating = 3.0
)

type pooledCandidate struct {
	line    store.Line
	overlap float64
	rank    float64
}

type pooledMatch struct {
	lines      []store.Line
	confidence float64
}

// tryPooled assembles a session from the goal's line pool: rank every
// overlapping line, drop duplicate tag signatures, and take the top
// lines up to the session target.
func (s *Service) tryPooled(goal store.Goal, themes []string) (*pooledMatch, error) {
	pool, err := s.store.GetLinesByGoal(goal)
	if err != nil {
		return nil, fmt.Errorf("load line pool for %s: %w", goal, err)
	}

	ranked := make([]pooledCandidate, 0, len(pool))
	for _, line := range pool {
		overlap := s.score(themes, line.Tags)
		if overlap == 0 {
			continue
		}
		rating := neutralRating
		if line.AvgRating != nil {
			rating = *line.AvgRating
		}
		ranked = append(ranked, pooledCandidate{
			line:    line,
			overlap: overlap,
			rank:    overlapWeight*overlap + ratingWeight*(rating/5.0),
		})
	}

	minViable := s.target / 2
	if minViable < 1 {
		minViable = 1
	}
	if len(ranked) < minViable {
		return nil, fmt.Errorf("%d eligible lines for goal %s: %w", len(ranked), goal, ErrNoCandidate)
	}

	// Stable sort over the creation-ordered pool keeps selection
	// deterministic when ranks tie.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rank > ranked[j].rank
	})

	selected := selectDiverse(ranked, s.target)
	if len(selected) < minViable {
		return nil, fmt.Errorf("%d distinct lines after diversity filter: %w", len(selected), ErrNoCandidate)
	}

	lines := make([]store.Line, len(selected))
	overlapSum := 0.0
	for i, cand := range selected {
		lines[i] = cand.line
		overlapSum += cand.overlap
	}

	coverage := float64(len(ranked)) / float64(s.target)
	if coverage > 1 {
		coverage = 1
	}
	confidence := (overlapSum / float64(len(selected))) * coverage

	logger.Debug("pooled tier candidate",
		"eligible", len(ranked),
		"selected", len(selected),
		"confidence", confidence)
	return &pooledMatch{lines: lines, confidence: confidence}, nil
}

// selectDiverse walks the ranked candidates and skips any line whose tag
// signature was already taken, so a session never repeats one idea six
// ways.
func selectDiverse(ranked []pooledCandidate, target int) []pooledCandidate {
	seen := make(map[string]bool, target)
	selected := make([]pooledCandidate, 0, target)
	for _, cand := range ranked {
		if len(selected) == target {
			break
		}
		sig := tagSignature(cand.line.Tags)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		selected = append(selected, cand)
	}
	return selected
}

func tagSignature(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

// acceptPooled counts a use on every selected line.
func (s *Service) acceptPooled(m *pooledMatch) (*outcome, error) {
	ids := make([]string, len(m.lines))
	texts := make([]string, len(m.lines))
	for i, line := range m.lines {
		ids[i] = line.ID
		texts[i] = line.Text
	}
	if err := s.store.IncrementLineUse(ids); err != nil {
		return nil, fmt.Errorf("count line use: %w", err)
	}
	return &outcome{
		tier:       store.TierPooled,
		texts:      texts,
		confidence: m.confidence,
		lineIDs:    ids,
	}, nil
}
