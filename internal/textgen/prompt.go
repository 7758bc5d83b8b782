package textgen

import (
	"fmt"
	"strings"

	"github.com/mantradev/mantra/internal/store"
)

const systemInstruction = "You are a writer of short spoken affirmations for a guided audio app. " +
	"Write first-person, present-tense lines that are concrete and easy to say aloud. " +
	"Return exactly the requested number of lines, one per line, with no numbering, " +
	"no bullets, and no commentary. Do not make medical claims."

// goalDirection steers tone per goal.
var goalDirection = map[store.Goal]string{
	store.GoalSleep:     "winding down for sleep; slow, soothing, low-stimulation language",
	store.GoalCalm:      "settling anxiety; grounding, steady, reassuring language",
	store.GoalFocus:     "starting focused work; clear, energizing, single-task language",
	store.GoalAbundance: "gratitude and opportunity; warm, open, appreciative language",
}

func buildPrompt(goal store.Goal, intentText string, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d affirmation lines for the goal %q (%s).\n", n, string(goal), goalDirection[goal])
	if intentText != "" {
		fmt.Fprintf(&sb, "The listener said: %q. Echo their own words where it feels natural.\n", intentText)
	}
	sb.WriteString("Each line is 6 to 14 words. One line per output line, nothing else.")
	return sb.String()
}
