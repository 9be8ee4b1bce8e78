package api

import (
	"log/slog"

	ingesthandler "github.com/billwatch/billwatch/internal/domain/ingest/handler"
	ingestservice "github.com/billwatch/billwatch/internal/domain/ingest/service"
	"github.com/billwatch/billwatch/internal/domain/recurring"
	recurringhandler "github.com/billwatch/billwatch/internal/domain/recurring/handler"
	"github.com/billwatch/billwatch/pkg/config"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Services
	ParseService *ingestservice.ParseService

	// Handlers
	ImportHandler    *ingesthandler.ImportHandler
	RecurringHandler *recurringhandler.RecurringHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.ParseService = ingestservice.NewParseService(logger)

	deps.ImportHandler = ingesthandler.NewImportHandler(
		deps.ParseService,
		logger,
		cfg.Server.MaxUploadBytes,
	)
	deps.RecurringHandler = recurringhandler.NewRecurringHandler(
		deps.ParseService,
		logger,
		cfg.Server.MaxUploadBytes,
		recurring.Options{
			MinCount:  cfg.Detect.MinCount,
			MaxGroups: cfg.Detect.MaxGroups,
		},
	)

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// Cleanup releases held resources. Nothing is held today; the hook stays
// so main's shutdown path does not change when something is.
func (d *Dependencies) Cleanup() {}
