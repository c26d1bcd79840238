package services

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// SyncQueue is the outbox as seen by the record services.
type SyncQueue interface {
	RemoteWriter
	PendingKeys(ctx context.Context, kind string) (map[string]bool, error)
}

// RecordSyncOptions configures services that mirror value records (meals,
// progress photos) to the remote store.
type RecordSyncOptions struct {
	Location      *time.Location
	RemoteTimeout time.Duration
	Logger        *log.Logger
	Now           func() time.Time
}

type recordSync struct {
	queue         SyncQueue
	location      *time.Location
	remoteTimeout time.Duration
	logger        *log.Logger
	now           func() time.Time
}

func newRecordSync(queue SyncQueue, options RecordSyncOptions) recordSync {
	location := options.Location
	if location == nil {
		location, _ = LoadLocation(DefaultTimezone)
	}
	remoteTimeout := options.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = defaultRemoteReadTimeout
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return recordSync{
		queue:         queue,
		location:      location,
		remoteTimeout: remoteTimeout,
		logger:        loggerOrDiscard(options.Logger),
		now:           now,
	}
}

func (mirror recordSync) today() string {
	return CurrentDay(mirror.now(), mirror.location)
}

func (mirror recordSync) submit(ctx context.Context, kind string, key string, payload any) {
	if mirror.queue != nil {
		mirror.queue.Submit(ctx, kind, key, payload)
	}
}

// pending returns the record keys with an undelivered write of kind. A
// failure is logged and reported as no pending keys.
func (mirror recordSync) pending(ctx context.Context, kind string) map[string]bool {
	if mirror.queue == nil {
		return map[string]bool{}
	}
	keys, err := mirror.queue.PendingKeys(ctx, kind)
	if err != nil {
		mirror.logger.Warn("list pending outbox keys failed", "kind", kind, "err", err)
		return map[string]bool{}
	}
	return keys
}
