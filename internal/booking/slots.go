package booking

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidGranularity = errors.New("slot granularity must be a positive whole number of minutes")

// Interval is a half-open [Start, End) wall-clock range on a single day.
type Interval struct {
	Start string // HH:MM
	End   string // HH:MM
}

// Slot is one bookable range produced by GenerateSlots.
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether two half-open ranges intersect.
func (s Slot) Overlaps(start, end TimeOfDay) bool {
	return s.Start < end && start < s.End
}

// GenerateSlots enumerates the bookable fixed-length slots inside the given
// availability windows, removing any slot that overlaps a booked interval.
//
// Windows flagged unavailable are skipped. A trailing remainder shorter than
// the granularity is never offered. Overlapping windows cannot offer the same
// slot twice. The result is ordered by start time.
//
// The function is pure: identical inputs always yield identical output.
func GenerateSlots(windows []AvailabilityWindow, booked []Interval, granularity time.Duration) ([]Slot, error) {
	if granularity < time.Minute || granularity%time.Minute != 0 {
		return nil, ErrInvalidGranularity
	}
	step := TimeOfDay(granularity / time.Minute)

	taken := make([]Slot, 0, len(booked))
	for _, b := range booked {
		start, err := ParseTimeOfDay(b.Start)
		if err != nil {
			return nil, fmt.Errorf("booked interval: %w", err)
		}
		end, err := ParseTimeOfDay(b.End)
		if err != nil {
			return nil, fmt.Errorf("booked interval: %w", err)
		}
		taken = append(taken, Slot{Start: start, End: end})
	}

	seen := make(map[TimeOfDay]bool)
	var out []Slot

	for _, w := range windows {
		if !w.IsAvailable {
			continue
		}
		start, err := ParseTimeOfDay(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("availability window %s: %w", w.ID, err)
		}
		end, err := ParseTimeOfDay(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("availability window %s: %w", w.ID, err)
		}

		for cur := start; cur+step <= end; cur += step {
			if seen[cur] {
				continue
			}
			seen[cur] = true

			cand := Slot{Start: cur, End: cur + step}
			conflict := false
			for _, t := range taken {
				if cand.Overlaps(t.Start, t.End) {
					conflict = true
					break
				}
			}
			if !conflict {
				out = append(out, cand)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}
