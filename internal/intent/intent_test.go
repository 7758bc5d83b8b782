package intent

import (
	"reflect"
	"testing"

	"github.com/mantradev/mantra/internal/store"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "short tokens and stopwords drop out",
			text: "help me sleep better at night",
			want: []string{"better", "night", "sleep"},
		},
		{
			name: "punctuation and case are normalized",
			text: "I can't STOP worrying... about deadlines!",
			want: []string{"deadlines", "stop", "worrying"},
		},
		{
			name: "duplicates collapse",
			text: "sleep sleep sleep deeply",
			want: []string{"deeply", "sleep"},
		},
		{
			name: "empty intent",
			text: "",
			want: []string{},
		},
		{
			name: "all stopwords",
			text: "I just really want to feel",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestKeywordsDeterministic(t *testing.T) {
	text := "calm my racing thoughts before bedtime tonight"
	first := Keywords(text)
	for i := 0; i < 10; i++ {
		if got := Keywords(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("Keywords is not deterministic: %v vs %v", got, first)
		}
	}
}

func TestThemes(t *testing.T) {
	tests := []struct {
		name string
		text string
		goal store.Goal
		want []string
	}{
		{
			name: "goal is always a theme",
			text: "",
			goal: store.GoalSleep,
			want: []string{"sleep"},
		},
		{
			name: "relaxation maps to calm and stress",
			text: "I need to relax and reduce stress",
			goal: store.GoalCalm,
			want: []string{"calm", "stress"},
		},
		{
			name: "worry under the sleep goal",
			text: "my mind is racing and I worry all night",
			goal: store.GoalSleep,
			want: []string{"anxiety", "sleep"},
		},
		{
			name: "productivity triggers under focus",
			text: "deep work on a big deadline",
			goal: store.GoalFocus,
			want: []string{"focus", "productivity"},
		},
		{
			name: "triggers from another goal do not leak",
			text: "money and wealth",
			goal: store.GoalSleep,
			want: []string{"sleep"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Themes(tt.text, tt.goal)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Themes(%q, %s) = %v, want %v", tt.text, tt.goal, got, tt.want)
			}
		})
	}
}

func TestThemesDeterministic(t *testing.T) {
	text := "grateful and calm under pressure"
	first := Themes(text, store.GoalCalm)
	for i := 0; i < 10; i++ {
		if got := Themes(text, store.GoalCalm); !reflect.DeepEqual(got, first) {
			t.Fatalf("Themes is not deterministic: %v vs %v", got, first)
		}
	}
}
