package store

import (
	"errors"
	"testing"
	"time"
)

func TestResolutionFeedbackAppliesOnce(t *testing.T) {
	s := newTestStore(t)

	rec := &ResolutionRecord{
		Tier:       TierPooled,
		Cost:       0.05,
		Confidence: 0.7,
		Goal:       GoalCalm,
		Intent:     "relax and reduce stress",
		LineIDs:    []string{"a", "b"},
	}
	if err := s.CreateResolutionRecord(rec); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("record id was not assigned")
	}

	rating := 5
	replayed := true
	if err := s.SetResolutionFeedback(rec.ID, &rating, &replayed); err != nil {
		t.Fatalf("first feedback failed: %v", err)
	}

	got, err := s.GetResolutionRecord(rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Rating == nil || *got.Rating != 5 {
		t.Errorf("rating = %v, want 5", got.Rating)
	}
	if got.Replayed == nil || !*got.Replayed {
		t.Errorf("replayed = %v, want true", got.Replayed)
	}
	if got.FeedbackAt == nil {
		t.Error("feedback_at was not set")
	}

	second := 1
	err = s.SetResolutionFeedback(rec.ID, &second, nil)
	if !errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("second feedback returned %v, want ErrDuplicateFeedback", err)
	}

	got, _ = s.GetResolutionRecord(rec.ID)
	if *got.Rating != 5 {
		t.Errorf("rating changed by rejected feedback: %d", *got.Rating)
	}

	if err := s.SetResolutionFeedback("no-such-record", &rating, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("feedback on a missing record returned %v, want ErrNotFound", err)
	}
}

func TestFeedbackWithoutRatingStillClaimsTheRecord(t *testing.T) {
	s := newTestStore(t)

	rec := &ResolutionRecord{Tier: TierExact, Goal: GoalSleep, Intent: "sleep"}
	if err := s.CreateResolutionRecord(rec); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	replayed := true
	if err := s.SetResolutionFeedback(rec.ID, nil, &replayed); err != nil {
		t.Fatalf("replay-only feedback failed: %v", err)
	}

	rating := 4
	if err := s.SetResolutionFeedback(rec.ID, &rating, nil); !errors.Is(err, ErrDuplicateFeedback) {
		t.Errorf("feedback after a replay-only submission returned %v, want ErrDuplicateFeedback", err)
	}
}

func TestResolutionStats(t *testing.T) {
	s := newTestStore(t)

	records := []ResolutionRecord{
		{Tier: TierExact, Cost: 0, Goal: GoalSleep, Intent: "a"},
		{Tier: TierExact, Cost: 0, Goal: GoalSleep, Intent: "b"},
		{Tier: TierPooled, Cost: 0.05, Goal: GoalCalm, Intent: "c"},
		{Tier: TierGenerated, Cost: 0.30, Goal: GoalFocus, Intent: "d"},
		{Tier: TierFallback, Cost: 0, Goal: GoalFocus, Intent: "e"},
	}
	for i := range records {
		if err := s.CreateResolutionRecord(&records[i]); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	rating := 4
	if err := s.SetResolutionFeedback(records[2].ID, &rating, nil); err != nil {
		t.Fatalf("feedback failed: %v", err)
	}

	stats, err := s.ResolutionStats(time.Time{})
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	byTier := make(map[Tier]TierStat, len(stats))
	for _, st := range stats {
		byTier[st.Tier] = st
	}
	if st := byTier[TierExact]; st.Count != 2 || st.Cost != 0 {
		t.Errorf("exact stat = %+v, want count 2 cost 0", st)
	}
	if st := byTier[TierPooled]; st.Count != 1 || st.Cost != 0.05 {
		t.Errorf("pooled stat = %+v, want count 1 cost 0.05", st)
	}
	if st := byTier[TierPooled]; st.AvgRating == nil || *st.AvgRating != 4.0 {
		t.Errorf("pooled avg rating = %v, want 4.0", st.AvgRating)
	}
	if st := byTier[TierGenerated]; st.Cost != 0.30 {
		t.Errorf("generated cost = %v, want 0.30", st.Cost)
	}

	// A window in the future excludes everything.
	stats, err = s.ResolutionStats(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("future window returned %d rows, want 0", len(stats))
	}
}
