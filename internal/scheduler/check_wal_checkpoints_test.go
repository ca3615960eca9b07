package scheduler

import (
	"testing"

	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
	}
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabase(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	db := testutil.NewDashboardDB(t)

	job := NewCheckWALCheckpointsJob(db)
	job.SetLogger(testutil.NopLogger())

	assert.NoError(t, job.Run())
}
