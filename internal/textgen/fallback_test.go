package textgen

import (
	"testing"

	"github.com/mantradev/mantra/internal/store"
)

func TestFallbackCoversAllGoals(t *testing.T) {
	for _, goal := range store.Goals() {
		lines := Fallback(goal, 6)
		if len(lines) != 6 {
			t.Errorf("%s: got %d lines, want 6", goal, len(lines))
		}
		seen := map[string]bool{}
		for _, line := range lines {
			if line == "" {
				t.Errorf("%s: empty fallback line", goal)
			}
			if seen[line] {
				t.Errorf("%s: duplicate line %q within one session", goal, line)
			}
			seen[line] = true
		}
	}
}

func TestFallbackWrapsBeyondLibrary(t *testing.T) {
	lines := Fallback(store.GoalSleep, 10)
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10", len(lines))
	}
	if lines[8] != lines[0] || lines[9] != lines[1] {
		t.Error("wrap-around did not repeat from the start of the library")
	}
}

func TestFallbackUnknownGoal(t *testing.T) {
	lines := Fallback(store.Goal("serenity"), 3)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for _, line := range lines {
		if line == "" {
			t.Error("empty line for unknown goal")
		}
	}
}
