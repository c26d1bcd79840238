package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/nutriwell/internal/analysis"
	"github.com/terraincognita07/nutriwell/internal/api"
	"github.com/terraincognita07/nutriwell/internal/config"
	"github.com/terraincognita07/nutriwell/internal/db"
	"github.com/terraincognita07/nutriwell/internal/services"
	"github.com/terraincognita07/nutriwell/internal/storage"
	"gorm.io/gorm"
)

// Base64 data URLs inflate an image by a third.
const requestBodyLimit = storage.MaxImageBytes*4/3 + 64<<10

// Server is the assembled HTTP application and the resources it holds.
type Server struct {
	App     *fiber.App
	Handler *api.Handler

	closers []func() error
}

func NewServer(ctx context.Context, cfg config.Config, logger *log.Logger) (*Server, error) {
	server := &Server{}

	location, fallback := services.LoadLocation(cfg.Timezone)
	if fallback {
		logger.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	server.track(database)

	var remote *db.RemoteStore
	if cfg.RemoteDatabaseURL != "" {
		remoteDB, err := db.OpenPostgres(cfg.RemoteDatabaseURL)
		if err != nil {
			logger.Warn("remote database misconfigured, running local-only", "err", err)
		} else {
			server.track(remoteDB)
			remote = db.NewRemoteStore(remoteDB)
			if err := checkRemote(ctx, remote, cfg.RemoteTimeout); err != nil {
				logger.Warn("remote database unreachable, queueing writes until it answers", "err", err)
			}
		}
	}

	files, err := openStorage(ctx, cfg)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	handler, err := api.NewHandler(api.HandlerConfig{
		Database:       database,
		Remote:         remote,
		Files:          files,
		Analyzer:       analysis.NewClient(cfg.AnalysisURL, cfg.AnalysisKey, cfg.AnalysisTimeout),
		SecretKey:      cfg.SecretKey,
		CookieSecure:   cfg.CookieSecure,
		Location:       location,
		WaterPortionML: cfg.WaterPortionML,
		HistoryWindow:  cfg.HistoryWindowDays,
		SyncInterval:   cfg.SyncInterval,
		RemoteTimeout:  cfg.RemoteTimeout,
		Logger:         logger,
	})
	if err != nil {
		_ = server.Close()
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	server.Handler = handler
	server.App = newFiberApp(handler, logger)
	return server, nil
}

func checkRemote(ctx context.Context, remote *db.RemoteStore, timeout time.Duration) error {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return remote.EnsureSchema(checkCtx)
}

// Close waits for background remote deliveries, then closes the databases.
func (server *Server) Close() error {
	if server.Handler != nil {
		server.Handler.WaitSync()
	}
	var errs []error
	for index := len(server.closers) - 1; index >= 0; index-- {
		if err := server.closers[index](); err != nil {
			errs = append(errs, err)
		}
	}
	server.closers = nil
	return errors.Join(errs...)
}

func (server *Server) track(database *gorm.DB) {
	sqlDB, err := database.DB()
	if err != nil {
		return
	}
	server.closers = append(server.closers, sqlDB.Close)
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		files, err := storage.NewS3Storage(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("s3 storage init failed: %w", err)
		}
		return files, nil
	case config.StorageDisk, "":
		files, err := storage.NewDiskStorage(cfg.UploadDir, "/uploads")
		if err != nil {
			return nil, fmt.Errorf("disk storage init failed: %w", err)
		}
		return files, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

func newFiberApp(handler *api.Handler, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "NutriWell",
		DisableStartupMessage: true,
		BodyLimit:             requestBodyLimit,
		ErrorHandler:          jsonErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: logger.StandardLog().Writer(),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(compress.New())

	api.RegisterRoutes(app, handler)
	return app
}

func jsonErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
