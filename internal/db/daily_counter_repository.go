package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyCounterRepository struct {
	database *gorm.DB
}

func NewDailyCounterRepository(database *gorm.DB) *DailyCounterRepository {
	return &DailyCounterRepository{database: database}
}

func (repo *DailyCounterRepository) FindCounter(ctx context.Context, userID uint, metric string, day string) (models.DailyCounter, bool, error) {
	record := models.DailyCounter{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND metric = ? AND date = ?", userID, metric, day).
		Limit(1).
		Find(&record)
	if result.Error != nil {
		return models.DailyCounter{}, false, fmt.Errorf("find counter: %w", result.Error)
	}
	return record, result.RowsAffected > 0, nil
}

// FindLatestCounter returns the most recent day's record for the metric.
// Day strings sort lexically in calendar order.
func (repo *DailyCounterRepository) FindLatestCounter(ctx context.Context, userID uint, metric string) (models.DailyCounter, bool, error) {
	record := models.DailyCounter{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND metric = ?", userID, metric).
		Order("date DESC").
		Limit(1).
		Find(&record)
	if result.Error != nil {
		return models.DailyCounter{}, false, fmt.Errorf("find latest counter: %w", result.Error)
	}
	return record, result.RowsAffected > 0, nil
}

// SaveCounter writes the whole record, keyed on (user_id, metric, date).
func (repo *DailyCounterRepository) SaveCounter(ctx context.Context, record *models.DailyCounter) error {
	row := *record
	row.ID = 0
	err := repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "metric"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_value", "consumed_value", "metadata", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}

func (repo *DailyCounterRepository) ListHistory(ctx context.Context, userID uint, metric string) ([]models.CounterHistory, error) {
	entries := make([]models.CounterHistory, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND metric = ?", userID, metric).
		Order("date ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list counter history: %w", err)
	}
	return entries, nil
}

// ReplaceHistory swaps the stored window for the given entries.
func (repo *DailyCounterRepository) ReplaceHistory(ctx context.Context, userID uint, metric string, entries []models.CounterHistory) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND metric = ?", userID, metric).Delete(&models.CounterHistory{}).Error; err != nil {
			return fmt.Errorf("clear counter history: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]models.CounterHistory, 0, len(entries))
		for _, entry := range entries {
			entry.ID = 0
			entry.UserID = userID
			entry.Metric = metric
			rows = append(rows, entry)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("write counter history: %w", err)
		}
		return nil
	})
}
