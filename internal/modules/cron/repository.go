package cron

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/mission-control/internal/events"
	robfig "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Repository handles the cron_jobs table
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	now          func() time.Time
	log          zerolog.Logger
}

// NewRepository creates a new cron job repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		now:          time.Now,
		log:          log.With().Str("repo", "cron").Logger(),
	}
}

// NextRun computes the next activation of a standard cron expression (5 fields or an
// @descriptor) after the base instant. ok is false when the schedule does not parse.
func NextRun(schedule string, base time.Time) (next time.Time, ok bool) {
	sched, err := robfig.ParseStandard(schedule)
	if err != nil {
		return time.Time{}, false
	}
	next = sched.Next(base)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// deriveNextRun fills NextRunAt for enabled jobs that did not report one.
func (r *Repository) deriveNextRun(j *Job) {
	if j.NextRunAt != nil || !j.Enabled {
		return
	}
	base := r.now()
	if j.LastRunAt != nil {
		base = time.UnixMilli(*j.LastRunAt)
	}
	if next, ok := NextRun(j.Schedule, base); ok {
		ms := next.UnixMilli()
		j.NextRunAt = &ms
		return
	}
	r.log.Debug().Str("job_id", j.JobID).Str("schedule", j.Schedule).Msg("Schedule not parseable, next run left empty")
}

// Upsert replaces the status row for j.JobID.
func (r *Repository) Upsert(j *Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	r.deriveNextRun(j)

	now := r.now().UnixMilli()
	_, err := r.db.Exec(`
		INSERT INTO cron_jobs
			(job_id, name, schedule, enabled, last_status, last_run_at, last_duration_ms, last_error,
			 consecutive_errors, next_run_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			name = excluded.name,
			schedule = excluded.schedule,
			enabled = excluded.enabled,
			last_status = excluded.last_status,
			last_run_at = excluded.last_run_at,
			last_duration_ms = excluded.last_duration_ms,
			last_error = excluded.last_error,
			consecutive_errors = excluded.consecutive_errors,
			next_run_at = excluded.next_run_at,
			updated_at = excluded.updated_at
	`, j.JobID, j.Name, j.Schedule, boolToInt(j.Enabled), j.LastStatus, j.LastRunAt, j.LastDurationMs,
		j.LastError, j.ConsecutiveErrors, j.NextRunAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert cron job: %w", err)
	}
	j.UpdatedAt = now

	r.eventManager.Emit(events.CronJobUpdated, "cron", map[string]interface{}{
		"job_id": j.JobID,
		"status": j.Status(),
	})
	return nil
}

// List returns every job ordered by id.
func (r *Repository) List() ([]Job, error) {
	rows, err := r.db.Query(`
		SELECT job_id, name, schedule, enabled, last_status, last_run_at, last_duration_ms, last_error,
			consecutive_errors, next_run_at, updated_at
		FROM cron_jobs
		ORDER BY job_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cron jobs: %w", err)
	}
	defer rows.Close()

	result := []Job{}
	for rows.Next() {
		var j Job
		var enabled int
		var lastStatus, lastError sql.NullString
		var lastRunAt, lastDuration, consecutive, nextRunAt sql.NullInt64

		if err := rows.Scan(&j.JobID, &j.Name, &j.Schedule, &enabled, &lastStatus, &lastRunAt, &lastDuration,
			&lastError, &consecutive, &nextRunAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cron job: %w", err)
		}
		j.Enabled = enabled != 0
		if lastStatus.Valid {
			j.LastStatus = &lastStatus.String
		}
		if lastError.Valid {
			j.LastError = &lastError.String
		}
		if lastRunAt.Valid {
			j.LastRunAt = &lastRunAt.Int64
		}
		if lastDuration.Valid {
			j.LastDurationMs = &lastDuration.Int64
		}
		if consecutive.Valid {
			n := int(consecutive.Int64)
			j.ConsecutiveErrors = &n
		}
		if nextRunAt.Valid {
			j.NextRunAt = &nextRunAt.Int64
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cron jobs: %w", err)
	}

	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
