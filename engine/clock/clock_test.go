package clock

import (
	"errors"
	"testing"
	"time"
)

func TestHourOfDay(t *testing.T) {
	tests := []struct {
		t    int64
		want float64
	}{
		{0, 0},
		{3600, 1},
		{5400, 1.5},
		{23 * 3600, 23},
		{SecondsPerDay + 2*3600, 2},
		{-3600, 23},
	}
	for _, tt := range tests {
		if got := HourOfDay(tt.t); got != tt.want {
			t.Errorf("HourOfDay(%d) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	d := Date(SecondsPerDay*31 + 10*3600)
	if d.Month() != time.February || d.Day() != 1 || d.Hour() != 10 {
		t.Errorf("unexpected date %v", d)
	}
}

func TestAdvance(t *testing.T) {
	got, err := Advance(100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 220 {
		t.Errorf("Advance = %d, want 220", got)
	}

	got, err = Advance(100, -1)
	if !errors.Is(err, ErrBackwards) {
		t.Fatalf("expected ErrBackwards, got %v", err)
	}
	if got != 100 {
		t.Errorf("time changed on rejected advance: %d", got)
	}
}

func TestAt(t *testing.T) {
	base := int64(3*SecondsPerDay + 5*3600)
	if got := At(base, 20, 30); got != 3*SecondsPerDay+20*3600+30*60 {
		t.Errorf("At = %d", got)
	}
}

func TestDay_Negative(t *testing.T) {
	if got := Day(-1); got != -1 {
		t.Errorf("Day(-1) = %d, want -1", got)
	}
}
