package store

import (
	"fmt"
	"time"
)

// Goal is the session goal category. The four values are fixed; every line,
// template and resolution is partitioned by one of them.
type Goal string

const (
	GoalSleep     Goal = "sleep"
	GoalCalm      Goal = "calm"
	GoalFocus     Goal = "focus"
	GoalAbundance Goal = "abundance"
)

func Goals() []Goal {
	return []Goal{GoalSleep, GoalCalm, GoalFocus, GoalAbundance}
}

func ParseGoal(s string) (Goal, error) {
	switch Goal(s) {
	case GoalSleep, GoalCalm, GoalFocus, GoalAbundance:
		return Goal(s), nil
	}
	return "", fmt.Errorf("unknown goal %q", s)
}

// Voice identifies a synthesis voice.
type Voice string

const (
	VoiceEmber Voice = "ember"
	VoiceBrook Voice = "brook"
	VoiceSol   Voice = "sol"
	VoiceAsha  Voice = "asha"
)

func ParseVoice(s string) (Voice, error) {
	switch Voice(s) {
	case VoiceEmber, VoiceBrook, VoiceSol, VoiceAsha:
		return Voice(s), nil
	}
	return "", fmt.Errorf("unknown voice %q", s)
}

// Pace identifies a speaking pace.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceSteady Pace = "steady"
	PaceBrisk  Pace = "brisk"
)

func ParsePace(s string) (Pace, error) {
	switch Pace(s) {
	case PaceSlow, PaceSteady, PaceBrisk:
		return Pace(s), nil
	}
	return "", fmt.Errorf("unknown pace %q", s)
}

// Tier names the strategy that resolved a session.
type Tier string

const (
	TierExact     Tier = "exact"
	TierPooled    Tier = "pooled"
	TierGenerated Tier = "generated"
	TierFallback  Tier = "fallback"
)

// Line is a single affirmation sentence in the shared pool. Text is immutable
// once created; identical (goal, text) pairs are deduplicated, never re-inserted.
type Line struct {
	ID        string    `json:"id"` // ULID
	Goal      Goal      `json:"goal"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags"`
	Emotion   string    `json:"emotion"`
	UseCount  int64     `json:"use_count"`
	AvgRating *float64  `json:"avg_rating"` // Nullable until first rating
	CreatedAt time.Time `json:"created_at"`
}

// Template is a named, pre-built line-set bound to one goal and one canonical
// intent. LineIDs holds the ordered line references; it is populated by
// GetTemplateByID, not by the goal listing used for matching.
type Template struct {
	ID          string    `json:"id"` // ULID
	Title       string    `json:"title"`
	Goal        Goal      `json:"goal"`
	Intent      string    `json:"intent"`
	Keywords    []string  `json:"keywords"`
	LineIDs     []string  `json:"line_ids,omitempty"`
	UseCount    int64     `json:"use_count"`
	AvgRating   *float64  `json:"avg_rating"`
	IsProtected bool      `json:"is_protected"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResolutionRecord is written once per end-to-end resolution. Only the
// rating/replayed/feedback fields may change afterwards, and only once.
type ResolutionRecord struct {
	ID         string     `json:"id"` // UUID
	Tier       Tier       `json:"tier"`
	Cost       float64    `json:"cost"`
	Confidence float64    `json:"confidence"`
	Goal       Goal       `json:"goal"`
	Intent     string     `json:"intent"`
	TemplateID *string    `json:"template_id,omitempty"`
	LineIDs    []string   `json:"line_ids"`
	Rating     *int       `json:"rating"`
	Replayed   *bool      `json:"replayed"`
	CreatedAt  time.Time  `json:"created_at"`
	FeedbackAt *time.Time `json:"feedback_at,omitempty"`
}

// CacheEntry maps a content key to a stored audio artifact. The key is a pure
// function of (text, voice, pace); identical inputs always land on one entry.
type CacheEntry struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	Bytes       int64     `json:"bytes"`
	Voice       Voice     `json:"voice"`
	Pace        Pace      `json:"pace"`
	CreatedAt   time.Time `json:"created_at"`
	LastAccess  time.Time `json:"last_access"`
	AccessCount int64     `json:"access_count"`
}

// TierStat is one row of the cost/quality breakdown used by the stats surface.
type TierStat struct {
	Tier      Tier     `json:"tier"`
	Count     int64    `json:"count"`
	Cost      float64  `json:"cost"`
	AvgRating *float64 `json:"avg_rating"`
}
