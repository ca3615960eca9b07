/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the HTTP server for access to services.
 */
package di

import (
	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/livequery"
	"github.com/aristath/mission-control/internal/modules/activities"
	"github.com/aristath/mission-control/internal/modules/agents"
	"github.com/aristath/mission-control/internal/modules/cron"
	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/aristath/mission-control/internal/modules/meals"
	"github.com/aristath/mission-control/internal/modules/overview"
	"github.com/aristath/mission-control/internal/modules/progress"
	"github.com/aristath/mission-control/internal/modules/reports"
	"github.com/aristath/mission-control/internal/modules/trading"
	"github.com/aristath/mission-control/internal/reliability"
	"github.com/aristath/mission-control/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: one SQLite file (dashboard.db) holding every table
 * - Events: the change bus every repository publishes to
 * - Repositories: one per table group
 * - Services: page view builders on top of the repositories
 * - Live queries: registry + hub re-running reads on table changes
 * - Reliability: off-site backup (nil when not configured)
 * - Scheduler: cron-driven maintenance jobs
 */
type Container struct {
	// Database
	DB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Repositories
	HealthRepo     *health.Repository
	ActivitiesRepo *activities.Repository
	ProgressRepo   *progress.Repository
	TradingRepo    *trading.Repository
	CronRepo       *cron.Repository
	MealsRepo      *meals.Repository
	AgentsRepo     *agents.Repository
	ReportsRepo    *reports.Repository

	// Services
	HealthService   *health.Service
	ProgressService *progress.Service
	TradingService  *trading.Service
	CronService     *cron.Service
	MealsService    *meals.Service
	ReportsService  *reports.Service
	OverviewService *overview.Service

	// Live queries
	LiveRegistry *livequery.Registry
	LiveHub      *livequery.Hub

	// Reliability
	BackupService *reliability.BackupService

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the scheduled jobs so they can be triggered manually
type JobInstances struct {
	CheckWALCheckpoints    *scheduler.CheckWALCheckpointsJob
	CheckDatabaseIntegrity *scheduler.CheckDatabaseIntegrityJob
	DailyMaintenance       *reliability.DailyMaintenanceJob
	WeeklyMaintenance      *reliability.WeeklyMaintenanceJob
	Backup                 *reliability.BackupJob // nil when backups are disabled
}

// ByName returns every non-nil job keyed by its scheduler name.
func (j *JobInstances) ByName() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	if j == nil {
		return jobs
	}
	for _, job := range []scheduler.Job{
		j.CheckWALCheckpoints,
		j.CheckDatabaseIntegrity,
		j.DailyMaintenance,
		j.WeeklyMaintenance,
	} {
		jobs[job.Name()] = job
	}
	if j.Backup != nil {
		jobs[j.Backup.Name()] = j.Backup
	}
	return jobs
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.LiveHub != nil {
		c.LiveHub.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
