package services

import (
	"errors"
	"strings"
	"time"
)

// DefaultTimezone keeps day boundaries aligned with the Brazilian user base
// regardless of where the server runs.
const DefaultTimezone = "America/Sao_Paulo"

const dayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid day")

// LoadLocation resolves a timezone name, falling back to UTC when the name
// is unknown. The second result reports whether the fallback was used.
func LoadLocation(name string) (*time.Location, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = DefaultTimezone
	}
	location, err := time.LoadLocation(trimmed)
	if err != nil {
		return time.UTC, true
	}
	return location, false
}

// CurrentDay is the single place a calendar-day key is produced.
func CurrentDay(now time.Time, location *time.Location) string {
	return DateAtLocation(now, location).Format(dayLayout)
}

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// ParseDay validates a YYYY-MM-DD key and returns it in canonical form.
func ParseDay(raw string, location *time.Location) (string, error) {
	if location == nil {
		location = time.UTC
	}
	parsed, err := time.ParseInLocation(dayLayout, strings.TrimSpace(raw), location)
	if err != nil {
		return "", ErrInvalidDay
	}
	return CurrentDay(parsed, location), nil
}

// ShiftDay moves a day key by the given number of calendar days.
func ShiftDay(day string, offset int, location *time.Location) (string, error) {
	if location == nil {
		location = time.UTC
	}
	parsed, err := time.ParseInLocation(dayLayout, day, location)
	if err != nil {
		return "", ErrInvalidDay
	}
	return CurrentDay(parsed.AddDate(0, 0, offset), location), nil
}
