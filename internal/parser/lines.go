package parser

import "strings"

// splitLines splits on "\n" only; an empty input yields a single empty line.
func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// headerLabel lowercases a section's first line and strips leading bold markup,
// so "**Ingredients**" and "ingredients:" both start with "ingredients".
func headerLabel(line string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(line)), "**")
}

// isHeading reports whether line opens a section at the given level and
// returns the heading text that follows the marker. A bare marker line also
// opens a section; its label is then the next non-blank line.
func isHeading(line string, level int) (string, bool) {
	if len(line) < level {
		return "", false
	}
	for i := 0; i < level; i++ {
		if line[i] != '#' {
			return "", false
		}
	}
	if len(line) == level {
		return "", true
	}
	if c := line[level]; c != ' ' && c != '\t' {
		return "", false
	}
	return strings.TrimLeft(line[level:], " \t"), true
}
