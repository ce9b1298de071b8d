package greenhouse

import (
	"fmt"
	"sort"
	"time"
)

// ExpandSchedule lists every minute slot ("HH:MM") covered by the windows,
// sorted and without duplicates. Window ends are inclusive.
func ExpandSchedule(windows []Window) ([]string, error) {
	seen := make(map[string]bool)
	for _, w := range windows {
		start, err := time.Parse("15:04", w.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: start %q", ErrInvalidSchedule, w.Start)
		}
		end, err := time.Parse("15:04", w.End)
		if err != nil {
			return nil, fmt.Errorf("%w: end %q", ErrInvalidSchedule, w.End)
		}
		for t := start; !t.After(end); t = t.Add(time.Minute) {
			seen[t.Format("15:04")] = true
		}
	}

	slots := make([]string, 0, len(seen))
	for s := range seen {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots, nil
}

// Active reports whether t falls inside one of the windows.
func Active(windows []Window, t time.Time) bool {
	hm := t.Format("15:04")
	for _, w := range windows {
		if w.Start <= hm && hm <= w.End {
			return true
		}
	}
	return false
}
