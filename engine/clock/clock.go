// Package clock derives calendar values from the world time counter.
// Time is integer seconds since the Unix epoch; nothing here is stored.
package clock

import (
	"errors"
	"time"
)

const (
	SecondsPerMinute = 60
	SecondsPerHour   = 3600
	SecondsPerDay    = 86400
)

// ErrBackwards is returned when an advance would move time backwards.
var ErrBackwards = errors.New("time cannot move backwards")

// HourOfDay returns the fractional hour in [0,24) for the given time.
func HourOfDay(t int64) float64 {
	sec := t % SecondsPerDay
	if sec < 0 {
		sec += SecondsPerDay
	}
	return float64(sec) / SecondsPerHour
}

// Date returns the UTC calendar time for t.
func Date(t int64) time.Time {
	return time.Unix(t, 0).UTC()
}

// Day returns the number of whole days elapsed since the epoch.
func Day(t int64) int64 {
	if t < 0 {
		return (t - SecondsPerDay + 1) / SecondsPerDay
	}
	return t / SecondsPerDay
}

// Advance returns t moved forward by the given number of minutes.
func Advance(t int64, minutes int) (int64, error) {
	if minutes < 0 {
		return t, ErrBackwards
	}
	return t + int64(minutes)*SecondsPerMinute, nil
}

// At returns the time of the given hour and minute on the day containing t.
func At(t int64, hour, minute int) int64 {
	return Day(t)*SecondsPerDay + int64(hour)*SecondsPerHour + int64(minute)*SecondsPerMinute
}

// Format renders t the way the status bar shows it.
func Format(t int64) string {
	return Date(t).Format("Mon Jan 2, 15:04")
}

// Layout is the text form accepted for configured start times.
const Layout = "2006-01-02 15:04"

// Parse reads a time in Layout form, interpreted as UTC.
func Parse(s string) (int64, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
