package db

import (
	"context"
	"fmt"
	"time"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository struct {
	database *gorm.DB
}

func NewOutboxRepository(database *gorm.DB) *OutboxRepository {
	return &OutboxRepository{database: database}
}

// Enqueue records a pending write. A newer write for the same record
// replaces the pending payload, bumps its version, and clears the backoff.
func (repo *OutboxRepository) Enqueue(ctx context.Context, entry *models.OutboxEntry) error {
	now := time.Now()
	entry.Version = 1
	entry.Attempts = 0
	entry.LastError = ""
	if entry.NextAttemptAt.IsZero() {
		entry.NextAttemptAt = now
	}
	err := repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "record_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payload":         entry.Payload,
			"version":         gorm.Expr("sync_outbox.version + 1"),
			"attempts":        0,
			"next_attempt_at": entry.NextAttemptAt,
			"last_error":      "",
			"updated_at":      now,
		}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("enqueue outbox entry: %w", err)
	}
	return nil
}

func (repo *OutboxRepository) FindByKey(ctx context.Context, kind string, recordKey string) (models.OutboxEntry, bool, error) {
	entry := models.OutboxEntry{}
	result := repo.database.WithContext(ctx).
		Where("kind = ? AND record_key = ?", kind, recordKey).
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return models.OutboxEntry{}, false, fmt.Errorf("find outbox entry: %w", result.Error)
	}
	return entry, result.RowsAffected > 0, nil
}

func (repo *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := make([]models.OutboxEntry, 0)
	if err := repo.database.WithContext(ctx).
		Where("next_attempt_at <= ?", now).
		Order("next_attempt_at ASC, id ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list due outbox entries: %w", err)
	}
	return entries, nil
}

func (repo *OutboxRepository) ListKeysByKind(ctx context.Context, kind string) ([]string, error) {
	keys := make([]string, 0)
	if err := repo.database.WithContext(ctx).
		Model(&models.OutboxEntry{}).
		Where("kind = ?", kind).
		Pluck("record_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list outbox keys: %w", err)
	}
	return keys, nil
}

// MarkFailed only touches the entry when it still holds the delivered
// version, so a newer enqueue is never pushed back by an old failure.
func (repo *OutboxRepository) MarkFailed(ctx context.Context, entryID uint, version int, attempts int, nextAttemptAt time.Time, lastError string) error {
	if err := repo.database.WithContext(ctx).
		Model(&models.OutboxEntry{}).
		Where("id = ? AND version = ?", entryID, version).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
			"updated_at":      time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}

func (repo *OutboxRepository) DeleteDelivered(ctx context.Context, entryID uint, version int) error {
	if err := repo.database.WithContext(ctx).
		Where("id = ? AND version = ?", entryID, version).
		Delete(&models.OutboxEntry{}).Error; err != nil {
		return fmt.Errorf("delete delivered outbox entry: %w", err)
	}
	return nil
}

// DeleteByKey drops a pending write that a later operation supersedes.
func (repo *OutboxRepository) DeleteByKey(ctx context.Context, kind string, recordKey string) error {
	if err := repo.database.WithContext(ctx).
		Where("kind = ? AND record_key = ?", kind, recordKey).
		Delete(&models.OutboxEntry{}).Error; err != nil {
		return fmt.Errorf("delete outbox entry: %w", err)
	}
	return nil
}

func (repo *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.OutboxEntry{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count outbox entries: %w", err)
	}
	return count, nil
}
