package api

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func NewHandler(config HandlerConfig) (*Handler, error) {
	if config.Database == nil {
		return nil, errors.New("database is required")
	}
	if len(config.SecretKey) == 0 {
		return nil, errors.New("secret key is required")
	}
	location := config.Location
	if location == nil {
		location, _ = services.LoadLocation(services.DefaultTimezone)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	handler := &Handler{
		secretKey:    []byte(config.SecretKey),
		cookieSecure: config.CookieSecure,
		location:     location,
		logger:       logger,
		now:          now,
		loginLimiter: newAttemptLimiter(),
	}
	return handler.withDependencies(config), nil
}

// StartSync runs the outbox worker until ctx is cancelled. It does nothing
// in local-only mode.
func (handler *Handler) StartSync(ctx context.Context) {
	handler.outbox.Start(ctx)
}

// WaitSync blocks until in-flight remote deliveries finish.
func (handler *Handler) WaitSync() {
	handler.outbox.Wait()
}
