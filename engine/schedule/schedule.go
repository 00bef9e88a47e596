// Package schedule resolves NPC locations from time-of-day tables.
package schedule

import (
	"fmt"

	"github.com/nathoo/talecraft/types"
)

// Contains reports whether hour falls in the window [start, end).
// When start > end the window wraps past midnight. Equal bounds never match.
func Contains(start, end, hour float64) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Resolve returns the location of the first entry whose window contains hour.
// The second result is false when no entry matches.
func Resolve(table []types.ScheduleEntry, hour float64) (string, bool) {
	for _, e := range table {
		if Contains(e.Start, e.End, hour) {
			return e.Location, true
		}
	}
	return "", false
}

// Next returns the location to move to given the previous one. changed is
// false when the table has no match or the match equals prev.
func Next(table []types.ScheduleEntry, hour float64, prev string) (loc string, changed bool) {
	loc, ok := Resolve(table, hour)
	if !ok || loc == prev {
		return prev, false
	}
	return loc, true
}

// Validate checks that every entry has hours in [0,24) and a location.
func Validate(table []types.ScheduleEntry) error {
	for i, e := range table {
		if e.Start < 0 || e.Start >= 24 || e.End < 0 || e.End > 24 {
			return fmt.Errorf("schedule entry %d: hours %v-%v out of range", i, e.Start, e.End)
		}
		if e.Location == "" {
			return fmt.Errorf("schedule entry %d: missing location", i)
		}
	}
	return nil
}

// FromAny converts a decoded table into entries. Accepted shapes are
// []types.ScheduleEntry, or a list whose rows are [start, end, location]
// lists or {start, end, location} maps.
func FromAny(v any) ([]types.ScheduleEntry, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []types.ScheduleEntry:
		return t, nil
	case []any:
		out := make([]types.ScheduleEntry, 0, len(t))
		for i, row := range t {
			e, err := entryFromAny(row)
			if err != nil {
				return nil, fmt.Errorf("schedule row %d: %w", i, err)
			}
			out = append(out, e)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported schedule value %T", v)
	}
}

func entryFromAny(row any) (types.ScheduleEntry, error) {
	switch r := row.(type) {
	case types.ScheduleEntry:
		return r, nil
	case []any:
		if len(r) != 3 {
			return types.ScheduleEntry{}, fmt.Errorf("expected 3 values, got %d", len(r))
		}
		start, ok1 := toFloat(r[0])
		end, ok2 := toFloat(r[1])
		loc, ok3 := r[2].(string)
		if !ok1 || !ok2 || !ok3 {
			return types.ScheduleEntry{}, fmt.Errorf("expected [start, end, location]")
		}
		return types.ScheduleEntry{Start: start, End: end, Location: loc}, nil
	case map[string]any:
		start, ok1 := toFloat(r["start"])
		end, ok2 := toFloat(r["end"])
		loc, ok3 := r["location"].(string)
		if !ok1 || !ok2 || !ok3 {
			return types.ScheduleEntry{}, fmt.Errorf("expected {start, end, location}")
		}
		return types.ScheduleEntry{Start: start, End: end, Location: loc}, nil
	default:
		return types.ScheduleEntry{}, fmt.Errorf("unsupported row %T", row)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
