package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertLineDeduplicates(t *testing.T) {
	s := newTestStore(t)

	first, err := s.UpsertLine(&Line{Goal: GoalSleep, Text: "I drift into deep rest", Tags: []string{"sleep", "rest"}, Emotion: "peaceful"})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if first.UseCount != 1 {
		t.Errorf("new line use_count = %d, want 1", first.UseCount)
	}

	second, err := s.UpsertLine(&Line{Goal: GoalSleep, Text: "I drift into deep rest", Tags: []string{"sleep"}, Emotion: "calm"})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate text created a second row: %s vs %s", second.ID, first.ID)
	}
	if second.UseCount != 2 {
		t.Errorf("use_count after duplicate upsert = %d, want 2", second.UseCount)
	}

	all, err := s.GetLinesByGoal(GoalSleep)
	if err != nil {
		t.Fatalf("GetLinesByGoal failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("pool has %d rows, want 1", len(all))
	}

	// Same text under another goal is a different line.
	other, err := s.UpsertLine(&Line{Goal: GoalCalm, Text: "I drift into deep rest", Tags: []string{"calm"}})
	if err != nil {
		t.Fatalf("cross-goal upsert failed: %v", err)
	}
	if other.ID == first.ID {
		t.Error("same text in a different goal reused the line id")
	}
}

func TestEnsureLineIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	first, err := s.EnsureLine(&Line{Goal: GoalFocus, Text: "My attention is steady", Tags: []string{"focus"}})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if first.UseCount != 0 {
		t.Errorf("seeded line use_count = %d, want 0", first.UseCount)
	}

	second, err := s.EnsureLine(&Line{Goal: GoalFocus, Text: "My attention is steady", Tags: []string{"focus"}})
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if second.ID != first.ID || second.UseCount != 0 {
		t.Errorf("ensure was not idempotent: id %s vs %s, use_count %d", second.ID, first.ID, second.UseCount)
	}
}

func TestPromoteLineRatingRunningAverage(t *testing.T) {
	s := newTestStore(t)

	line, err := s.UpsertLine(&Line{Goal: GoalCalm, Text: "I am at ease", Tags: []string{"calm"}})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// First rating sets the average directly.
	if err := s.PromoteLineRating(line.ID, 4); err != nil {
		t.Fatalf("first promotion failed: %v", err)
	}
	got, err := s.GetLineByID(line.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.AvgRating == nil || *got.AvgRating != 4.0 {
		t.Fatalf("avg_rating after first promotion = %v, want 4.0", got.AvgRating)
	}

	// Second rating is weighted by use_count (1): (4*1 + 5) / 2 = 4.5.
	if err := s.PromoteLineRating(line.ID, 5); err != nil {
		t.Fatalf("second promotion failed: %v", err)
	}
	got, err = s.GetLineByID(line.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.AvgRating == nil || *got.AvgRating != 4.5 {
		t.Errorf("avg_rating after second promotion = %v, want 4.5", got.AvgRating)
	}

	if err := s.PromoteLineRating("no-such-line", 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("promoting a missing line returned %v, want ErrNotFound", err)
	}
}

func TestIncrementLineUse(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertLine(&Line{Goal: GoalSleep, Text: "line a", Tags: []string{"sleep"}})
	b, _ := s.UpsertLine(&Line{Goal: GoalSleep, Text: "line b", Tags: []string{"sleep"}})

	if err := s.IncrementLineUse([]string{a.ID, b.ID}); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	for _, id := range []string{a.ID, b.ID} {
		got, err := s.GetLineByID(id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.UseCount != 2 {
			t.Errorf("line %s use_count = %d, want 2", id, got.UseCount)
		}
	}
}

func TestDeleteLineGuards(t *testing.T) {
	s := newTestStore(t)

	referenced, _ := s.UpsertLine(&Line{Goal: GoalSleep, Text: "referenced line", Tags: []string{"sleep"}})
	loose, _ := s.UpsertLine(&Line{Goal: GoalSleep, Text: "loose line", Tags: []string{"sleep"}})

	_, err := s.CreateTemplate(&Template{
		Title:    "Wind Down",
		Goal:     GoalSleep,
		Intent:   "sleep better tonight",
		Keywords: []string{"sleep", "better", "tonight"},
		LineIDs:  []string{referenced.ID},
	})
	if err != nil {
		t.Fatalf("template create failed: %v", err)
	}

	if err := s.DeleteLine(referenced.ID); !errors.Is(err, ErrLineReferenced) {
		t.Errorf("deleting a referenced line returned %v, want ErrLineReferenced", err)
	}
	if err := s.DeleteLine(loose.ID); err != nil {
		t.Errorf("deleting an unreferenced line failed: %v", err)
	}
	if err := s.DeleteLine("no-such-line"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting a missing line returned %v, want ErrNotFound", err)
	}
}
