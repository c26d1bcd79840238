package api

import (
	"github.com/terraincognita07/nutriwell/internal/db"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) withDependencies(config HandlerConfig) *Handler {
	handler.repositories = db.NewRepositories(config.Database)
	handler.files = config.Files
	repos := handler.repositories

	// Nil interfaces, not typed nil pointers, keep the services local-only.
	var (
		sink          services.RemoteSink
		remoteCounter services.CounterStore
		remoteMeals   services.RemoteMealReader
		remotePhotos  services.RemotePhotoReader
		analyzer      services.Analyzer
	)
	if config.Remote != nil {
		sink = config.Remote
		remoteCounter = config.Remote
		remoteMeals = config.Remote
		remotePhotos = config.Remote
	}
	if config.Analyzer.Configured() {
		analyzer = config.Analyzer
	}

	handler.outbox = services.NewOutboxService(repos.Outbox, sink, services.OutboxOptions{
		Interval: config.SyncInterval,
		Logger:   handler.logger,
		Now:      handler.now,
	})
	handler.counters = services.NewCounterSyncService(repos.Counters, remoteCounter, handler.outbox, services.CounterSyncOptions{
		Location:       handler.location,
		WaterPortionML: config.WaterPortionML,
		HistoryWindow:  config.HistoryWindow,
		RemoteTimeout:  config.RemoteTimeout,
		Logger:         handler.logger,
		Now:            handler.now,
	})

	recordOptions := services.RecordSyncOptions{
		Location:      handler.location,
		RemoteTimeout: config.RemoteTimeout,
		Logger:        handler.logger,
		Now:           handler.now,
	}
	handler.meals = services.NewMealService(repos.Meals, remoteMeals, handler.outbox, handler.counters, config.Files, analyzer, recordOptions)
	handler.photos = services.NewProgressPhotoService(repos.Photos, remotePhotos, handler.outbox, config.Files, recordOptions)
	handler.authService = services.NewAuthService(repos.Users, handler.logger)
	handler.profiles = services.NewProfileService(repos.Profiles, repos.Users, handler.counters, config.Files, handler.logger)
	handler.references = services.NewReferenceService(repos.ReferenceMaterials)
	return handler
}
