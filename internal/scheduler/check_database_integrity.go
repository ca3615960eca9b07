package scheduler

import (
	"fmt"

	"github.com/aristath/mission-control/internal/database"
	"github.com/rs/zerolog"
)

// CheckDatabaseIntegrityJob verifies the dashboard database with PRAGMA integrity_check
type CheckDatabaseIntegrityJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckDatabaseIntegrityJob creates a new CheckDatabaseIntegrityJob
func NewCheckDatabaseIntegrityJob(db *database.DB) *CheckDatabaseIntegrityJob {
	return &CheckDatabaseIntegrityJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabaseIntegrityJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabaseIntegrityJob) Name() string {
	return "check_database_integrity"
}

// Run executes the integrity check
func (j *CheckDatabaseIntegrityJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	var result string
	if err := j.db.Conn().QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if result != "ok" {
		// Corruption cannot be repaired automatically; the last off-site backup is the way back
		j.log.Error().
			Str("database", j.db.Name()).
			Str("result", result).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %s", j.db.Name(), result)
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database integrity OK")
	return nil
}
