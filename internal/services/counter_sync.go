package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/datatypes"
)

const defaultRemoteReadTimeout = 3 * time.Second

var (
	ErrUnknownMetric        = errors.New("unknown counter metric")
	ErrInvalidCounterTarget = errors.New("invalid counter target")
	ErrInvalidCounterDelta  = errors.New("invalid counter delta")
	ErrInvalidWeight        = errors.New("invalid weight")
)

// MetricSpec is the step and default daily target of one tracked metric.
// MaxValue bounds both a single change and the daily target.
type MetricSpec struct {
	Name          string
	Step          int
	DefaultTarget int
	MaxValue      int
}

func DefaultMetricSpecs(waterPortionML int) map[string]MetricSpec {
	if waterPortionML <= 0 {
		waterPortionML = DefaultWaterPortionML
	}
	return map[string]MetricSpec{
		models.MetricWater:    {Name: models.MetricWater, Step: waterPortionML, DefaultTarget: 2000, MaxValue: 20000},
		models.MetricCalories: {Name: models.MetricCalories, Step: 100, DefaultTarget: 2000, MaxValue: 20000},
		models.MetricMeals:    {Name: models.MetricMeals, Step: 1, DefaultTarget: 4, MaxValue: 50},
	}
}

type CounterStore interface {
	FindCounter(ctx context.Context, userID uint, metric string, day string) (models.DailyCounter, bool, error)
	FindLatestCounter(ctx context.Context, userID uint, metric string) (models.DailyCounter, bool, error)
	SaveCounter(ctx context.Context, record *models.DailyCounter) error
}

type LocalCounterStore interface {
	CounterStore
	ListHistory(ctx context.Context, userID uint, metric string) ([]models.CounterHistory, error)
	ReplaceHistory(ctx context.Context, userID uint, metric string, entries []models.CounterHistory) error
}

// RemoteWriter accepts writes bound for the remote store. Submit must not
// wait on the remote; delivery failures stay inside the writer.
type RemoteWriter interface {
	Submit(ctx context.Context, kind string, key string, payload any)
}

type CounterSyncOptions struct {
	Location       *time.Location
	WaterPortionML int
	HistoryWindow  int
	RemoteTimeout  time.Duration
	Logger         *log.Logger
	Now            func() time.Time
}

// CounterSnapshot is the state of one counter as shown to the user.
type CounterSnapshot struct {
	Metric    string             `json:"metric"`
	Date      string             `json:"date"`
	Target    int                `json:"target"`
	Consumed  int                `json:"consumed"`
	Step      int                `json:"step"`
	Remaining int                `json:"remaining"`
	Exceeded  bool               `json:"exceeded"`
	Metadata  map[string]float64 `json:"metadata"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CounterSyncService keeps per-day counters in the local store and mirrors
// them to the remote store. Reads prefer the remote record. Writes are
// local first and never fail because of the remote side.
type CounterSyncService struct {
	local         LocalCounterStore
	remote        CounterStore
	writer        RemoteWriter
	specs         map[string]MetricSpec
	location      *time.Location
	historyWindow int
	remoteTimeout time.Duration
	logger        *log.Logger
	now           func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCounterSyncService builds the service. remote and writer may be nil
// for local-only operation.
func NewCounterSyncService(local LocalCounterStore, remote CounterStore, writer RemoteWriter, options CounterSyncOptions) *CounterSyncService {
	location := options.Location
	if location == nil {
		location, _ = LoadLocation(DefaultTimezone)
	}
	historyWindow := options.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindowDays
	}
	remoteTimeout := options.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = defaultRemoteReadTimeout
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}

	return &CounterSyncService{
		local:         local,
		remote:        remote,
		writer:        writer,
		specs:         DefaultMetricSpecs(options.WaterPortionML),
		location:      location,
		historyWindow: historyWindow,
		remoteTimeout: remoteTimeout,
		logger:        loggerOrDiscard(options.Logger),
		now:           now,
		locks:         make(map[string]*sync.Mutex),
	}
}

func (service *CounterSyncService) Spec(metric string) (MetricSpec, error) {
	spec, ok := service.specs[metric]
	if !ok {
		return MetricSpec{}, ErrUnknownMetric
	}
	return spec, nil
}

func (service *CounterSyncService) Today() string {
	return CurrentDay(service.now(), service.location)
}

func (service *CounterSyncService) Load(ctx context.Context, userID uint, metric string) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}

	unlock := service.lock(userID, metric)
	defer unlock()

	record, err := service.resolve(ctx, userID, spec)
	if err != nil {
		return CounterSnapshot{}, err
	}
	return snapshotOf(record, spec), nil
}

func (service *CounterSyncService) Increment(ctx context.Context, userID uint, metric string) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}
	return service.Apply(ctx, userID, metric, spec.Step, nil)
}

func (service *CounterSyncService) Decrement(ctx context.Context, userID uint, metric string) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}
	return service.Apply(ctx, userID, metric, -spec.Step, nil)
}

// Add moves the counter by an arbitrary amount. Negative amounts floor the
// counter at zero.
func (service *CounterSyncService) Add(ctx context.Context, userID uint, metric string, delta int) (CounterSnapshot, error) {
	if delta == 0 {
		return CounterSnapshot{}, ErrInvalidCounterDelta
	}
	return service.Apply(ctx, userID, metric, delta, nil)
}

// Apply adds delta to today's consumed value and adds every metadata value
// to the stored metadata under the same key. Both floor at zero. A delta
// larger than the metric's MaxValue is rejected.
func (service *CounterSyncService) Apply(ctx context.Context, userID uint, metric string, delta int, metadata map[string]float64) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}
	if delta > spec.MaxValue || delta < -spec.MaxValue {
		return CounterSnapshot{}, ErrInvalidCounterDelta
	}
	return service.mutate(ctx, userID, metric, func(record *models.DailyCounter) error {
		record.ConsumedValue = max(0, record.ConsumedValue+delta)
		if len(metadata) > 0 {
			merged := counterMetadata(record.Metadata)
			for key, value := range metadata {
				merged[key] = max(0, roundTo(merged[key]+value, 2))
			}
			encoded, err := json.Marshal(merged)
			if err != nil {
				return fmt.Errorf("encode counter metadata: %w", err)
			}
			record.Metadata = datatypes.JSON(encoded)
		}
		return nil
	})
}

func (service *CounterSyncService) SetTarget(ctx context.Context, userID uint, metric string, target int) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}
	if target <= 0 || target > spec.MaxValue {
		return CounterSnapshot{}, ErrInvalidCounterTarget
	}
	return service.mutate(ctx, userID, metric, func(record *models.DailyCounter) error {
		record.TargetValue = target
		return nil
	})
}

// RecalculateWaterTarget derives the water target from body weight.
func (service *CounterSyncService) RecalculateWaterTarget(ctx context.Context, userID uint, weightKg float64) (CounterSnapshot, error) {
	spec, err := service.Spec(models.MetricWater)
	if err != nil {
		return CounterSnapshot{}, err
	}
	target, ok := WaterTargetForWeight(weightKg, spec.Step)
	if !ok {
		return CounterSnapshot{}, ErrInvalidWeight
	}
	return service.SetTarget(ctx, userID, models.MetricWater, target)
}

func (service *CounterSyncService) History(ctx context.Context, userID uint, metric string) ([]models.CounterHistory, error) {
	if _, err := service.Spec(metric); err != nil {
		return nil, err
	}
	return service.local.ListHistory(ctx, userID, metric)
}

func (service *CounterSyncService) mutate(ctx context.Context, userID uint, metric string, change func(record *models.DailyCounter) error) (CounterSnapshot, error) {
	spec, err := service.Spec(metric)
	if err != nil {
		return CounterSnapshot{}, err
	}

	record, err := service.mutateLocked(ctx, userID, spec, change)
	if err != nil {
		return CounterSnapshot{}, err
	}
	return snapshotOf(record, spec), nil
}

func (service *CounterSyncService) mutateLocked(ctx context.Context, userID uint, spec MetricSpec, change func(record *models.DailyCounter) error) (models.DailyCounter, error) {
	unlock := service.lock(userID, spec.Name)
	defer unlock()

	record, err := service.resolve(ctx, userID, spec)
	if err != nil {
		return models.DailyCounter{}, err
	}
	if err := change(&record); err != nil {
		return models.DailyCounter{}, err
	}
	record.UpdatedAt = service.now()

	if err := service.local.SaveCounter(ctx, &record); err != nil {
		return models.DailyCounter{}, err
	}
	service.projectHistory(ctx, record)

	// Submit only enqueues, so queued versions follow mutation order.
	if service.writer != nil {
		service.writer.Submit(ctx, models.OutboxKindCounter, CounterRecordKey(record), record)
	}
	return record, nil
}

// resolve returns today's record. The newer of the remote and local
// records wins; an older day rolls over to today with the target kept.
func (service *CounterSyncService) resolve(ctx context.Context, userID uint, spec MetricSpec) (models.DailyCounter, error) {
	today := service.Today()

	local, localFound, err := service.local.FindLatestCounter(ctx, userID, spec.Name)
	if err != nil {
		return models.DailyCounter{}, err
	}

	remote, remoteFound := service.readRemote(ctx, userID, spec.Name)

	record := local
	found := localFound
	if remoteFound && (!localFound || !counterIsNewer(local, remote)) {
		record = remote
		found = true
		if !localFound || !sameCounterState(local, remote) {
			cached := remote
			if err := service.local.SaveCounter(ctx, &cached); err != nil {
				service.logger.Warn("refresh local counter cache failed", "user_id", userID, "metric", spec.Name, "err", err)
			}
		}
	}

	if !found {
		record = models.DailyCounter{
			UserID:      userID,
			Metric:      spec.Name,
			Date:        today,
			TargetValue: spec.DefaultTarget,
			UpdatedAt:   service.now(),
		}
		if err := service.local.SaveCounter(ctx, &record); err != nil {
			return models.DailyCounter{}, err
		}
		return record, nil
	}

	if record.Date != today {
		record = RolloverCounter(record, today, spec.DefaultTarget, service.now())
		if err := service.local.SaveCounter(ctx, &record); err != nil {
			return models.DailyCounter{}, err
		}
	}
	return record, nil
}

func (service *CounterSyncService) readRemote(ctx context.Context, userID uint, metric string) (models.DailyCounter, bool) {
	if service.remote == nil {
		return models.DailyCounter{}, false
	}

	remoteCtx, cancel := context.WithTimeout(ctx, service.remoteTimeout)
	defer cancel()

	record, found, err := service.remote.FindLatestCounter(remoteCtx, userID, metric)
	if err != nil {
		service.logger.Warn("remote counter read failed, using local", "user_id", userID, "metric", metric, "err", err)
		return models.DailyCounter{}, false
	}
	return record, found
}

func (service *CounterSyncService) projectHistory(ctx context.Context, record models.DailyCounter) {
	entries, err := service.local.ListHistory(ctx, record.UserID, record.Metric)
	if err != nil {
		service.logger.Warn("load counter history failed", "user_id", record.UserID, "metric", record.Metric, "err", err)
		return
	}
	projected := ProjectHistory(entries, record, service.historyWindow)
	if err := service.local.ReplaceHistory(ctx, record.UserID, record.Metric, projected); err != nil {
		service.logger.Warn("save counter history failed", "user_id", record.UserID, "metric", record.Metric, "err", err)
	}
}

func (service *CounterSyncService) lock(userID uint, metric string) func() {
	key := strconv.FormatUint(uint64(userID), 10) + ":" + metric

	service.mu.Lock()
	keyLock, ok := service.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		service.locks[key] = keyLock
	}
	service.mu.Unlock()

	keyLock.Lock()
	return keyLock.Unlock
}

// RolloverCounter starts day from the previous record: consumed and
// metadata reset, target carried over.
func RolloverCounter(previous models.DailyCounter, day string, defaultTarget int, now time.Time) models.DailyCounter {
	target := previous.TargetValue
	if target <= 0 {
		target = defaultTarget
	}
	return models.DailyCounter{
		UserID:      previous.UserID,
		Metric:      previous.Metric,
		Date:        day,
		TargetValue: target,
		UpdatedAt:   now,
	}
}

func CounterRecordKey(record models.DailyCounter) string {
	return fmt.Sprintf("%d:%s:%s", record.UserID, record.Metric, record.Date)
}

// counterIsNewer reports whether a should be kept over b. Later days win,
// then later writes. Ties go to b.
func counterIsNewer(a models.DailyCounter, b models.DailyCounter) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

func sameCounterState(a models.DailyCounter, b models.DailyCounter) bool {
	return a.Date == b.Date &&
		a.TargetValue == b.TargetValue &&
		a.ConsumedValue == b.ConsumedValue &&
		string(a.Metadata) == string(b.Metadata) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func counterMetadata(raw datatypes.JSON) map[string]float64 {
	values := map[string]float64{}
	if len(raw) == 0 {
		return values
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return map[string]float64{}
	}
	return values
}

func snapshotOf(record models.DailyCounter, spec MetricSpec) CounterSnapshot {
	return CounterSnapshot{
		Metric:    record.Metric,
		Date:      record.Date,
		Target:    record.TargetValue,
		Consumed:  record.ConsumedValue,
		Step:      spec.Step,
		Remaining: max(0, record.TargetValue-record.ConsumedValue),
		Exceeded:  record.TargetValue > 0 && record.ConsumedValue > record.TargetValue,
		Metadata:  counterMetadata(record.Metadata),
		UpdatedAt: record.UpdatedAt,
	}
}
