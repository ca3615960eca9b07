// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/mission-control/internal/config"
	"github.com/aristath/mission-control/internal/livequery"
	"github.com/aristath/mission-control/internal/metrics"
	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/overview"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
	"github.com/aristath/mission-control/internal/reliability"
	"github.com/rs/zerolog"
)

// ObjectStoreFactory builds the off-site store for backups.
type ObjectStoreFactory func(ctx context.Context, cfg *config.BackupConfig, log zerolog.Logger) (reliability.ObjectStore, error)

// S3ObjectStore is the production ObjectStoreFactory.
func S3ObjectStore(ctx context.Context, cfg *config.BackupConfig, log zerolog.Logger) (reliability.ObjectStore, error) {
	return reliability.NewS3Store(ctx, cfg, log)
}

// InitializeServices creates the view services, the live query hub and, when
// configured, the backup service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, newStore ObjectStoreFactory, log zerolog.Logger) error {
	if container == nil || container.EventBus == nil {
		return fmt.Errorf("repositories must be initialized first")
	}

	container.HealthService = health.NewService(container.HealthRepo, container.ProgressRepo, log)
	container.ProgressService = progress.NewService(container.ProgressRepo, log)
	container.TradingService = trading.NewService(container.TradingRepo, log)
	container.CronService = cron.NewService(container.CronRepo, container.HealthRepo, log)
	container.MealsService = meals.NewService(container.MealsRepo, cfg.Location, log)
	container.ReportsService = reports.NewService(container.ReportsRepo, cfg.Location, log)
	container.OverviewService = overview.NewService(
		container.HealthRepo,
		container.TradingRepo,
		container.MealsRepo,
		container.ProgressRepo,
		container.CronRepo,
		container.ReportsRepo,
		cfg.Location,
		log,
	)

	registry, err := livequery.NewDashboardRegistry(livequery.Sources{
		Health:     container.HealthService,
		Activities: container.ActivitiesRepo,
		Progress:   container.ProgressService,
		Trading:    container.TradingService,
		Cron:       container.CronService,
		Meals:      container.MealsService,
		Agents:     container.AgentsRepo,
		Reports:    container.ReportsService,
		Overview:   container.OverviewService,
	})
	if err != nil {
		return fmt.Errorf("failed to build live query registry: %w", err)
	}
	container.LiveRegistry = registry
	container.LiveHub = livequery.NewHub(registry, container.EventBus, log)
	metrics.CountEvents(container.EventBus)

	if cfg.Backup.Configured() {
		if newStore == nil {
			newStore = S3ObjectStore
		}
		store, err := newStore(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store, container.DB, cfg.DataDir, container.EventManager, log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Off-site backups enabled")
	} else {
		log.Info().Msg("Off-site backups disabled")
	}

	log.Debug().Msg("Services initialized")
	return nil
}
