// Package seed loads the curated starter catalog into the store. Seeding
// is idempotent: lines are ensured by their (goal, text) pair and a
// template is skipped once one with the same goal and title exists.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mantradev/mantra/internal/intent"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/store"
)

// Line is one pool entry in the catalog file.
type Line struct {
	Goal    string   `yaml:"goal"`
	Text    string   `yaml:"text"`
	Tags    []string `yaml:"tags"`
	Emotion string   `yaml:"emotion"`
}

// TemplateLine is one line inside a template block. It inherits the
// template's goal.
type TemplateLine struct {
	Text    string   `yaml:"text"`
	Tags    []string `yaml:"tags"`
	Emotion string   `yaml:"emotion"`
}

// Template is a curated line-set with the canonical intent it answers.
// Keywords are derived from the intent at seed time, not stored in the
// file.
type Template struct {
	Title  string         `yaml:"title"`
	Goal   string         `yaml:"goal"`
	Intent string         `yaml:"intent"`
	Lines  []TemplateLine `yaml:"lines"`
}

// Catalog is the full seed file.
type Catalog struct {
	Lines     []Line     `yaml:"lines"`
	Templates []Template `yaml:"templates"`
}

// Summary reports what one Apply pass touched.
type Summary struct {
	Lines            int
	Templates        int
	SkippedTemplates int
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	for i, l := range c.Lines {
		if _, err := store.ParseGoal(l.Goal); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		if l.Text == "" {
			return fmt.Errorf("line %d: empty text", i)
		}
	}
	for i, t := range c.Templates {
		if _, err := store.ParseGoal(t.Goal); err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		if t.Title == "" {
			return fmt.Errorf("template %d: empty title", i)
		}
		if t.Intent == "" {
			return fmt.Errorf("template %q: empty intent", t.Title)
		}
		if len(t.Lines) == 0 {
			return fmt.Errorf("template %q: no lines", t.Title)
		}
		for j, tl := range t.Lines {
			if tl.Text == "" {
				return fmt.Errorf("template %q line %d: empty text", t.Title, j)
			}
		}
	}
	return nil
}

// Apply writes the catalog into the store. Running it twice leaves the
// store unchanged apart from the skipped-template count.
func Apply(st *store.SQLiteStore, cat *Catalog) (*Summary, error) {
	var sum Summary

	for _, l := range cat.Lines {
		goal, err := store.ParseGoal(l.Goal)
		if err != nil {
			return nil, err
		}
		if _, err := st.EnsureLine(&store.Line{Goal: goal, Text: l.Text, Tags: l.Tags, Emotion: l.Emotion}); err != nil {
			return nil, fmt.Errorf("seed line %q: %w", l.Text, err)
		}
		sum.Lines++
	}

	for _, t := range cat.Templates {
		goal, err := store.ParseGoal(t.Goal)
		if err != nil {
			return nil, err
		}
		existing, err := st.GetTemplateByGoalTitle(goal, t.Title)
		if err != nil {
			return nil, fmt.Errorf("check template %q: %w", t.Title, err)
		}
		if existing != nil {
			sum.SkippedTemplates++
			logger.Debug("template already seeded", "title", t.Title, "goal", t.Goal)
			continue
		}

		ids := make([]string, len(t.Lines))
		for i, tl := range t.Lines {
			line, err := st.EnsureLine(&store.Line{Goal: goal, Text: tl.Text, Tags: tl.Tags, Emotion: tl.Emotion})
			if err != nil {
				return nil, fmt.Errorf("seed template line %q: %w", tl.Text, err)
			}
			ids[i] = line.ID
			sum.Lines++
		}

		if _, err := st.CreateTemplate(&store.Template{
			Title:       t.Title,
			Goal:        goal,
			Intent:      t.Intent,
			Keywords:    intent.Keywords(t.Intent),
			LineIDs:     ids,
			IsProtected: true,
		}); err != nil {
			return nil, fmt.Errorf("seed template %q: %w", t.Title, err)
		}
		sum.Templates++
		logger.Info("template seeded", "title", t.Title, "goal", t.Goal, "lines", len(ids))
	}

	return &sum, nil
}

// Run loads the catalog at path and applies it.
func Run(st *store.SQLiteStore, path string) (*Summary, error) {
	cat, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Apply(st, cat)
}
