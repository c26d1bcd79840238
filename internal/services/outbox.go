package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/datatypes"
)

const (
	defaultOutboxInterval        = 30 * time.Second
	defaultOutboxBaseBackoff     = 5 * time.Second
	defaultOutboxMaxBackoff      = 30 * time.Minute
	defaultOutboxDeliveryTimeout = 5 * time.Second
	defaultOutboxBatchSize       = 50
)

var ErrUnknownOutboxKind = errors.New("unknown outbox kind")

type OutboxStore interface {
	Enqueue(ctx context.Context, entry *models.OutboxEntry) error
	FindByKey(ctx context.Context, kind string, recordKey string) (models.OutboxEntry, bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.OutboxEntry, error)
	ListKeysByKind(ctx context.Context, kind string) ([]string, error)
	MarkFailed(ctx context.Context, entryID uint, version int, attempts int, nextAttemptAt time.Time, lastError string) error
	DeleteDelivered(ctx context.Context, entryID uint, version int) error
	DeleteByKey(ctx context.Context, kind string, recordKey string) error
	CountPending(ctx context.Context) (int64, error)
}

// RemoteSink is the remote side of every synced record.
type RemoteSink interface {
	SaveCounter(ctx context.Context, record *models.DailyCounter) error
	SaveMeal(ctx context.Context, meal *models.MealRecord) error
	DeleteMeal(ctx context.Context, userID uint, mealID string) error
	SavePhoto(ctx context.Context, photo *models.ProgressPhoto) error
	DeletePhoto(ctx context.Context, userID uint, photoID string) error
}

type OutboxOptions struct {
	Interval        time.Duration
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	DeliveryTimeout time.Duration
	BatchSize       int
	Logger          *log.Logger
	Now             func() time.Time
}

type SyncStatus struct {
	RemoteConfigured bool  `json:"remoteConfigured"`
	Pending          int64 `json:"pending"`
}

type recordDeletion struct {
	UserID uint   `json:"user_id"`
	ID     string `json:"id"`
}

// OutboxService persists remote writes locally and delivers them. Each
// write gets one immediate attempt in the background; failures are retried
// by the worker with exponential backoff. Deliveries run one at a time so
// the remote sees writes in queue order.
type OutboxService struct {
	store           OutboxStore
	sink            RemoteSink
	interval        time.Duration
	baseBackoff     time.Duration
	maxBackoff      time.Duration
	deliveryTimeout time.Duration
	batchSize       int
	logger          *log.Logger
	now             func() time.Time

	deliveryMu sync.Mutex
	inflight   sync.WaitGroup
}

// NewOutboxService returns a service that drops every write when sink is
// nil.
func NewOutboxService(store OutboxStore, sink RemoteSink, options OutboxOptions) *OutboxService {
	service := &OutboxService{
		store:           store,
		sink:            sink,
		interval:        options.Interval,
		baseBackoff:     options.BaseBackoff,
		maxBackoff:      options.MaxBackoff,
		deliveryTimeout: options.DeliveryTimeout,
		batchSize:       options.BatchSize,
		logger:          loggerOrDiscard(options.Logger),
		now:             options.Now,
	}
	if service.interval <= 0 {
		service.interval = defaultOutboxInterval
	}
	if service.baseBackoff <= 0 {
		service.baseBackoff = defaultOutboxBaseBackoff
	}
	if service.maxBackoff <= 0 {
		service.maxBackoff = defaultOutboxMaxBackoff
	}
	if service.deliveryTimeout <= 0 {
		service.deliveryTimeout = defaultOutboxDeliveryTimeout
	}
	if service.batchSize <= 0 {
		service.batchSize = defaultOutboxBatchSize
	}
	if service.now == nil {
		service.now = time.Now
	}
	return service
}

func (service *OutboxService) Enabled() bool {
	return service != nil && service.sink != nil
}

// Submit records a write and starts one delivery attempt in the
// background. It returns once the write is queued.
func (service *OutboxService) Submit(ctx context.Context, kind string, key string, payload any) {
	if !service.Enabled() {
		return
	}
	if err := service.Enqueue(ctx, kind, key, payload); err != nil {
		service.logger.Warn("outbox enqueue failed", "kind", kind, "key", key, "err", err)
		return
	}

	service.inflight.Add(1)
	go func() {
		defer service.inflight.Done()
		service.deliverKey(context.Background(), kind, key)
	}()
}

// Wait blocks until every background delivery started by Submit is done.
func (service *OutboxService) Wait() {
	if service == nil {
		return
	}
	service.inflight.Wait()
}

// deliverKey attempts the newest queued write for one record.
func (service *OutboxService) deliverKey(ctx context.Context, kind string, key string) {
	service.deliveryMu.Lock()
	defer service.deliveryMu.Unlock()

	entry, found, err := service.store.FindByKey(ctx, kind, key)
	if err != nil {
		service.logger.Warn("outbox lookup failed", "kind", kind, "key", key, "err", err)
		return
	}
	if !found {
		return
	}
	if err := service.attempt(ctx, entry); err != nil {
		service.logger.Warn("remote write failed, queued for retry", "kind", kind, "key", key, "err", err)
	}
}

// Enqueue stores the payload under (kind, key), replacing any pending
// payload for the same record. A delete also drops a pending save.
func (service *OutboxService) Enqueue(ctx context.Context, kind string, key string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}

	switch kind {
	case models.OutboxKindMealDelete:
		if err := service.store.DeleteByKey(ctx, models.OutboxKindMeal, key); err != nil {
			return err
		}
	case models.OutboxKindPhotoDelete:
		if err := service.store.DeleteByKey(ctx, models.OutboxKindPhoto, key); err != nil {
			return err
		}
	}

	return service.store.Enqueue(ctx, &models.OutboxEntry{
		Kind:          kind,
		RecordKey:     key,
		Payload:       datatypes.JSON(encoded),
		NextAttemptAt: service.now(),
	})
}

// Deliver sends one entry to the remote sink.
func (service *OutboxService) Deliver(ctx context.Context, entry models.OutboxEntry) error {
	if service.sink == nil {
		return nil
	}

	switch entry.Kind {
	case models.OutboxKindCounter:
		record := models.DailyCounter{}
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return fmt.Errorf("decode counter payload: %w", err)
		}
		return service.sink.SaveCounter(ctx, &record)
	case models.OutboxKindMeal:
		meal := models.MealRecord{}
		if err := json.Unmarshal(entry.Payload, &meal); err != nil {
			return fmt.Errorf("decode meal payload: %w", err)
		}
		return service.sink.SaveMeal(ctx, &meal)
	case models.OutboxKindPhoto:
		photo := models.ProgressPhoto{}
		if err := json.Unmarshal(entry.Payload, &photo); err != nil {
			return fmt.Errorf("decode photo payload: %w", err)
		}
		return service.sink.SavePhoto(ctx, &photo)
	case models.OutboxKindMealDelete, models.OutboxKindPhotoDelete:
		deletion := recordDeletion{}
		if err := json.Unmarshal(entry.Payload, &deletion); err != nil {
			return fmt.Errorf("decode deletion payload: %w", err)
		}
		if entry.Kind == models.OutboxKindMealDelete {
			return service.sink.DeleteMeal(ctx, deletion.UserID, deletion.ID)
		}
		return service.sink.DeletePhoto(ctx, deletion.UserID, deletion.ID)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutboxKind, entry.Kind)
	}
}

// Flush delivers every due entry once and returns how many succeeded.
func (service *OutboxService) Flush(ctx context.Context) (int, error) {
	if !service.Enabled() {
		return 0, nil
	}

	service.deliveryMu.Lock()
	defer service.deliveryMu.Unlock()

	entries, err := service.store.ListDue(ctx, service.now(), service.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := service.attempt(ctx, entry); err != nil {
			service.logger.Debug("outbox delivery failed", "kind", entry.Kind, "key", entry.RecordKey, "attempts", entry.Attempts+1, "err", err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (service *OutboxService) Start(ctx context.Context) {
	if !service.Enabled() {
		return
	}

	ticker := time.NewTicker(service.interval)
	go func() {
		defer ticker.Stop()

		service.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.runOnce(ctx)
			}
		}
	}()
}

func (service *OutboxService) runOnce(ctx context.Context) {
	delivered, err := service.Flush(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		service.logger.Warn("outbox flush failed", "err", err)
		return
	}
	if delivered > 0 {
		service.logger.Info("outbox flushed", "delivered", delivered)
	}
}

func (service *OutboxService) Status(ctx context.Context) (SyncStatus, error) {
	status := SyncStatus{RemoteConfigured: service.Enabled()}
	if service == nil || service.store == nil {
		return status, nil
	}
	pending, err := service.store.CountPending(ctx)
	if err != nil {
		return status, err
	}
	status.Pending = pending
	return status, nil
}

// PendingKeys lists record keys that still have an undelivered write of
// the given kind.
func (service *OutboxService) PendingKeys(ctx context.Context, kind string) (map[string]bool, error) {
	pending := map[string]bool{}
	if !service.Enabled() {
		return pending, nil
	}
	keys, err := service.store.ListKeysByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		pending[key] = true
	}
	return pending, nil
}

func (service *OutboxService) attempt(ctx context.Context, entry models.OutboxEntry) error {
	deliveryCtx, cancel := context.WithTimeout(ctx, service.deliveryTimeout)
	defer cancel()

	deliveryErr := service.Deliver(deliveryCtx, entry)
	if deliveryErr == nil {
		return service.store.DeleteDelivered(ctx, entry.ID, entry.Version)
	}

	attempts := entry.Attempts + 1
	next := service.now().Add(service.backoff(entry.Attempts))
	if err := service.store.MarkFailed(ctx, entry.ID, entry.Version, attempts, next, deliveryErr.Error()); err != nil {
		return errors.Join(deliveryErr, err)
	}
	return deliveryErr
}

// backoff is base × 2^attempts capped at the maximum.
func (service *OutboxService) backoff(attempts int) time.Duration {
	delay := service.baseBackoff
	for range attempts {
		if delay >= service.maxBackoff {
			break
		}
		delay *= 2
	}
	return min(delay, service.maxBackoff)
}
