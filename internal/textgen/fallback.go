package textgen

import "github.com/mantradev/mantra/internal/store"

// fallbackLines is the static library spoken when generation is
// unavailable. Every goal carries enough lines for a full session.
var fallbackLines = map[store.Goal][]string{
	store.GoalSleep: {
		"My body is heavy and warm, ready for rest.",
		"I release today and welcome deep, easy sleep.",
		"Each breath slows, and my thoughts grow quiet.",
		"My bed holds me, and I am safe to let go.",
		"Sleep comes to me gently and stays with me.",
		"I have done enough today, and now I rest.",
		"The night is calm, and so am I.",
		"I drift easily into soft, unbroken sleep.",
	},
	store.GoalCalm: {
		"I am grounded, steady, and safe right now.",
		"My breath is slow, and my shoulders are loose.",
		"This feeling is temporary, and I can hold it.",
		"With each exhale I let a little more go.",
		"I am bigger than this moment of worry.",
		"Calm moves through me like slow, warm water.",
		"I choose ease, one quiet breath at a time.",
		"Right now, in this breath, I am okay.",
	},
	store.GoalFocus: {
		"My attention is mine, and I direct it now.",
		"One task at a time is how I move forward.",
		"Distractions can wait, because this hour belongs to me.",
		"I begin easily, and momentum carries me forward.",
		"My mind is clear, sharp, and ready to work.",
		"I finish what I start, one small step each time.",
		"Deep focus feels natural to me today.",
		"I return to my work gently, without judgment.",
	},
	store.GoalAbundance: {
		"Good things are already on their way to me.",
		"I notice and appreciate what I have right now.",
		"Opportunities open for me every single day.",
		"I am grateful, and gratitude multiplies what I see.",
		"There is more than enough, and I am part of it.",
		"I give freely and receive with open hands.",
		"My life is full of quiet, growing abundance.",
		"I am worthy of the good that finds me.",
	},
}

// Fallback returns n static lines for the goal. It never fails; requests
// beyond the library size wrap around.
func Fallback(goal store.Goal, n int) []string {
	library := fallbackLines[goal]
	if len(library) == 0 {
		library = fallbackLines[store.GoalCalm]
	}
	lines := make([]string, n)
	for i := range lines {
		lines[i] = library[i%len(library)]
	}
	return lines
}
