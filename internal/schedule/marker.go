package schedule

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// dateLayout is the calendar-day stamp stored in the marker file.
const dateLayout = "2006-01-02"

// Day formats a calendar-day stamp.
func Day(t time.Time) string {
	return t.Format(dateLayout)
}

// Marker is the single-line file recording the last day a reschedule ran.
// The comparison is plain string equality on the date stamp; clock or
// timezone changes mid-day are not handled.
type Marker struct {
	path string
}

// NewMarker returns a Marker stored at path.
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Is reports whether the marker records the given day. A missing or
// unreadable marker file counts as "not yet scheduled".
func (m *Marker) Is(day string) bool {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(raw)) == day
}

// Write records the given day, overwriting any previous stamp.
func (m *Marker) Write(day string) error {
	if err := os.WriteFile(m.path, []byte(day), 0o644); err != nil {
		return fmt.Errorf("schedule: writing marker %s: %w", m.path, err)
	}
	return nil
}
