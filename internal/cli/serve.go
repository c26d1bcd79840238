package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/terraincognita07/nutriwell/internal/config"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	Port string `help:"Listen port, overrides PORT."`
}

func (cmd *ServeCmd) Run(ctx *Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Port != "" {
		cfg.Port = cmd.Port
	}
	logger := ctx.logger()

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()

	server, err := NewServer(lifecycleCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Warn("close databases failed", "err", err)
		}
	}()

	server.Handler.StartSync(lifecycleCtx)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "err", err)
		}
	}()

	logger.Info("nutriwell listening",
		"addr", "0.0.0.0:"+cfg.Port,
		"db", cfg.DBPath,
		"tz", cfg.Timezone,
		"storage", cfg.StorageBackend,
		"remote", cfg.RemoteDatabaseURL != "",
	)
	return server.App.Listen(":" + cfg.Port)
}
