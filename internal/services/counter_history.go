package services

import (
	"sort"

	"github.com/terraincognita07/nutriwell/internal/models"
)

const DefaultHistoryWindowDays = 7

// ProjectHistory puts record's day into the rolling window, replacing an
// entry for the same day, and keeps only the newest window days.
func ProjectHistory(entries []models.CounterHistory, record models.DailyCounter, window int) []models.CounterHistory {
	if window <= 0 {
		window = DefaultHistoryWindowDays
	}

	projected := make([]models.CounterHistory, 0, len(entries)+1)
	for _, entry := range entries {
		if entry.Date != record.Date {
			projected = append(projected, entry)
		}
	}
	projected = append(projected, models.CounterHistory{
		UserID:        record.UserID,
		Metric:        record.Metric,
		Date:          record.Date,
		TargetValue:   record.TargetValue,
		ConsumedValue: record.ConsumedValue,
	})

	sort.SliceStable(projected, func(i, j int) bool {
		return projected[i].Date < projected[j].Date
	})
	if len(projected) > window {
		projected = projected[len(projected)-window:]
	}
	return projected
}
