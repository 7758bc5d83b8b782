package textgen

import "strings"

// parseLines extracts affirmation lines from raw model output. Models
// sometimes number or bullet their lines despite instructions, so
// leading markers and wrapping quotes are stripped. At most n lines are
// returned; blank lines are skipped.
func parseLines(raw string, n int) []string {
	lines := make([]string, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		line = stripMarker(strings.TrimSpace(line))
		line = strings.Trim(line, "\"'“” \t")
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

// stripMarker removes a leading "1.", "2)", "-", "*", or "•" marker.
func stripMarker(line string) string {
	trimmed := strings.TrimLeft(line, "-*• \t")
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return strings.TrimSpace(trimmed)
}
