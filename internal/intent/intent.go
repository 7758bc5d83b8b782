// Package intent turns free-text user intent into the keyword and theme sets
// the resolver tiers match against. Both functions are pure and deterministic;
// an empty or all-stopword intent degrades to "no strong match", never an error.
package intent

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mantradev/mantra/internal/store"
)

// stopwords are filler words and pronouns that carry no matching signal.
var stopwords = map[string]struct{}{
	"help": {}, "want": {}, "need": {}, "feel": {}, "feels": {}, "feeling": {},
	"make": {}, "makes": {}, "making": {}, "get": {}, "gets": {}, "getting": {},
	"have": {}, "has": {}, "having": {}, "really": {}, "please": {}, "today": {},
	"just": {}, "very": {}, "about": {}, "with": {}, "from": {}, "when": {},
	"what": {}, "been": {}, "being": {}, "some": {}, "more": {}, "much": {},
	"like": {}, "into": {}, "that": {}, "this": {}, "these": {}, "those": {},
	"mine": {}, "myself": {}, "your": {}, "yours": {}, "yourself": {},
	"ours": {}, "ourselves": {}, "they": {}, "them": {}, "their": {}, "theirs": {},
}

// themeGroups maps each theme to the intent substrings that trigger it,
// partitioned by goal. The goal itself is always a theme (see Themes).
var themeGroups = map[store.Goal]map[string][]string{
	store.GoalSleep: {
		"sleep":   {"sleep", "asleep", "insomnia", "bedtime", "nap"},
		"rest":    {"rest", "tired", "exhaust", "fatigue"},
		"calm":    {"calm", "relax", "peace", "sooth", "unwind"},
		"anxiety": {"anxi", "worry", "stress", "racing", "overthink"},
	},
	store.GoalCalm: {
		"calm":      {"calm", "relax", "peace", "sooth", "unwind", "breathe"},
		"anxiety":   {"anxi", "worry", "panic", "nervous", "overthink"},
		"stress":    {"stress", "tense", "tension", "pressure", "overwhelm"},
		"gratitude": {"grateful", "gratitude", "thankful"},
	},
	store.GoalFocus: {
		"focus":        {"focus", "concentrat", "attention", "distract"},
		"productivity": {"productiv", "work", "task", "study", "deadline", "procrastinat"},
		"clarity":      {"clarity", "clear", "sharp", "learn"},
		"confidence":   {"confiden", "capable", "doubt"},
	},
	store.GoalAbundance: {
		"abundance":    {"abundan", "wealth", "money", "prosper", "rich"},
		"gratitude":    {"grateful", "gratitude", "thankful", "appreciate"},
		"confidence":   {"confiden", "worth", "deserv", "doubt"},
		"productivity": {"success", "achieve", "opportun", "career"},
	},
}

// Keywords extracts the lower-cased tokens longer than three characters, minus
// the stoplist. The result is deduplicated and sorted.
func Keywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	set := make(map[string]struct{})
	for _, tok := range tokens {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return sortedKeys(set)
}

// Themes assigns coarse theme tags by substring matching against the goal's
// trigger groups. The goal itself is always included, so an empty intent still
// yields one theme.
func Themes(text string, goal store.Goal) []string {
	lowered := strings.ToLower(text)
	set := map[string]struct{}{string(goal): {}}

	for theme, triggers := range themeGroups[goal] {
		for _, trigger := range triggers {
			if strings.Contains(lowered, trigger) {
				set[theme] = struct{}{}
				break
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
