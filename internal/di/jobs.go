// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/mission-control/internal/config"
	"github.com/aristath/mission-control/internal/reliability"
	"github.com/aristath/mission-control/internal/scheduler"
	"github.com/rs/zerolog"
)

// Schedules use the six-field cron format (seconds first).
const (
	scheduleWALCheck  = "0 */15 * * * *" // every 15 minutes
	scheduleIntegrity = "0 30 2 * * *"   // 02:30 daily
	scheduleDaily     = "0 0 2 * * *"    // 02:00 daily
	scheduleWeekly    = "0 0 4 * * SUN"  // Sunday 04:00
)

// RegisterJobs creates the maintenance jobs and registers them with a new scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.DB == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	walCheck := scheduler.NewCheckWALCheckpointsJob(container.DB)
	walCheck.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())
	instances.CheckWALCheckpoints = walCheck

	integrity := scheduler.NewCheckDatabaseIntegrityJob(container.DB)
	integrity.SetLogger(log.With().Str("job", "check_database_integrity").Logger())
	instances.CheckDatabaseIntegrity = integrity

	instances.DailyMaintenance = reliability.NewDailyMaintenanceJob(container.DB, cfg.DataDir, log)
	instances.WeeklyMaintenance = reliability.NewWeeklyMaintenanceJob(container.DB, log)

	sched := scheduler.New(log)
	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{scheduleWALCheck, instances.CheckWALCheckpoints},
		{scheduleIntegrity, instances.CheckDatabaseIntegrity},
		{scheduleDaily, instances.DailyMaintenance},
		{scheduleWeekly, instances.WeeklyMaintenance},
	}

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
		registrations = append(registrations, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Backup.Schedule, instances.Backup})
	}

	for _, reg := range registrations {
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", reg.job.Name(), err)
		}
	}

	container.Scheduler = sched
	container.Jobs = instances
	return instances, nil
}
