package scheduler

import (
	"github.com/aristath/mission-control/internal/database"
	"github.com/rs/zerolog"
)

// walFrameWarnThreshold is the WAL size, in frames, above which the job warns.
const walFrameWarnThreshold = 1000

// CheckWALCheckpointsJob monitors WAL checkpoint status
type CheckWALCheckpointsJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob
func NewCheckWALCheckpointsJob(db *database.DB) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckWALCheckpointsJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run executes a passive checkpoint and reports the WAL size
func (j *CheckWALCheckpointsJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping WAL check")
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walFrameWarnThreshold {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Bool("busy", busy != 0).
			Msg("WAL checkpoint status OK")
	}

	return nil
}
