package solver

import (
	"strconv"
	"strings"
)

// ParseClock converts "HH:MM" (or "HH:MM:SS") into minutes since midnight. Parsing is lenient: a
// component that is not a number counts as zero and a missing minute part is treated as ":00".
// Malformed input therefore only skews candidate ordering, never feasibility.
func ParseClock(raw string) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
	hours := clockComponent(parts[0])
	minutes := 0
	if len(parts) > 1 {
		minutes = clockComponent(parts[1])
	}
	return hours*60 + minutes
}

func clockComponent(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}
