package resolver

import (
	"fmt"

	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

type exactMatch struct {
	template   store.Template
	confidence float64
}

// tryExact scores every template for the goal against the request
// keywords and returns the best overlap, or nil when nothing overlaps
// at all. Ties keep the earliest-created template.
func (s *Service) tryExact(goal store.Goal, keywords []string) (*exactMatch, error) {
	templates, err := s.store.GetTemplatesByGoal(goal)
	if err != nil {
		return nil, fmt.Errorf("load templates for %s: %w", goal, err)
	}

	var best *exactMatch
	for _, tmpl := range templates {
		sc := s.score(keywords, tmpl.Keywords)
		if sc == 0 {
			continue
		}
		if best == nil || sc > best.confidence {
			best = &exactMatch{template: tmpl, confidence: sc}
		}
	}
	if best == nil {
		return nil, nil
	}

	logger.Debug("exact tier candidate",
		"template", best.template.Title,
		"confidence", best.confidence)
	return best, nil
}

// acceptExact materializes a template hit: load its lines in order and
// count the use.
func (s *Service) acceptExact(m *exactMatch) (*outcome, error) {
	lines, err := s.store.GetTemplateLines(m.template.ID)
	if err != nil {
		return nil, fmt.Errorf("load lines for template %s: %w", m.template.ID, err)
	}
	if err := s.store.IncrementTemplateUse(m.template.ID); err != nil {
		return nil, fmt.Errorf("count template use: %w", err)
	}

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	id := m.template.ID
	return &outcome{
		tier:       store.TierExact,
		texts:      texts,
		confidence: m.confidence,
		templateID: &id,
	}, nil
}
