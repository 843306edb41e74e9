// Package crontab models the user crontab as an ordered list of text lines
// and provides the exec-backed export/install operations against it.
//
// fancyjob only ever owns the lines carrying its ownership tag; everything
// else in the table is foreign and passes through untouched.
package crontab

import "strings"

// Parse splits exported crontab text into lines. A single trailing newline
// is not reported as an empty line.
func Parse(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Render joins lines back into installable crontab text with a trailing
// newline. An empty table renders as empty text.
func Render(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Partition separates the table into foreign lines (kept byte-for-byte in
// their original relative order) and self-owned lines (those containing
// tag), which are dropped and regenerated each day.
func Partition(lines []string, tag string) (kept, owned []string) {
	for _, line := range lines {
		if strings.Contains(line, tag) {
			owned = append(owned, line)
			continue
		}
		kept = append(kept, line)
	}
	return kept, owned
}
