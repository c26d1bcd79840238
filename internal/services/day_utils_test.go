package services

import (
	"errors"
	"testing"
	"time"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	location, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return location
}

func TestCurrentDayUsesConfiguredLocation(t *testing.T) {
	saoPaulo := mustLoadLocation(t, DefaultTimezone)

	// 01:30 UTC is still the previous evening in Sao Paulo.
	instant := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	if got := CurrentDay(instant, time.UTC); got != "2026-03-10" {
		t.Fatalf("expected UTC day 2026-03-10, got %s", got)
	}
	if got := CurrentDay(instant, saoPaulo); got != "2026-03-09" {
		t.Fatalf("expected Sao Paulo day 2026-03-09, got %s", got)
	}
}

func TestCurrentDayNilLocationFallsBackToUTC(t *testing.T) {
	instant := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	if got := CurrentDay(instant, nil); got != "2026-03-10" {
		t.Fatalf("expected 2026-03-10, got %s", got)
	}
}

func TestLoadLocation(t *testing.T) {
	location, fallback := LoadLocation("")
	if fallback {
		t.Fatal("expected default timezone to resolve")
	}
	if location.String() != DefaultTimezone {
		t.Fatalf("expected %s, got %s", DefaultTimezone, location.String())
	}

	location, fallback = LoadLocation("Mars/Olympus_Mons")
	if !fallback {
		t.Fatal("expected fallback for unknown timezone")
	}
	if location != time.UTC {
		t.Fatalf("expected UTC fallback, got %s", location.String())
	}
}

func TestDayRangeNormalizesToLocationMidnight(t *testing.T) {
	location := mustLoadLocation(t, DefaultTimezone)

	raw := time.Date(2026, 2, 1, 19, 35, 10, 0, time.UTC)
	start, end := DayRange(raw, location)

	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Fatalf("expected midnight start, got %s", start.Format(time.RFC3339))
	}
	if !end.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("expected next day end, got %s", end.Format(time.RFC3339))
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "2026-02-19", want: "2026-02-19"},
		{raw: " 2026-02-19 ", want: "2026-02-19"},
		{raw: "2026-02-30", wantErr: true},
		{raw: "19/02/2026", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDay(tt.raw, time.UTC)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDay) {
					t.Fatalf("expected ErrInvalidDay, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseDay() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShiftDayCrossesMonthBoundary(t *testing.T) {
	got, err := ShiftDay("2026-03-01", -1, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2026-02-28" {
		t.Fatalf("expected 2026-02-28, got %s", got)
	}
}
