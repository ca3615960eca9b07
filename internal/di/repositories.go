// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/mission-control/internal/config"
	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/modules/activities"
	"github.com/aristath/mission-control/internal/modules/agents"
	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the event bus and every repository
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database must be initialized first")
	}

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	conn := container.DB.Conn()
	em := container.EventManager

	container.HealthRepo = health.NewRepository(conn, em, log)
	container.ActivitiesRepo = activities.NewRepository(conn, em, log)
	container.ProgressRepo = progress.NewRepository(conn, em, log)
	container.TradingRepo = trading.NewRepository(conn, em, log)
	container.TradingRepo.SetDedupEpsilon(cfg.TradeDedupEpsilon)
	container.CronRepo = cron.NewRepository(conn, em, log)
	container.MealsRepo = meals.NewRepository(conn, em, cfg.Location, log)
	container.AgentsRepo = agents.NewRepository(conn, em, log)
	container.ReportsRepo = reports.NewRepository(conn, em, log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
