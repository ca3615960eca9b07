// Package cron tracks the last-run status of scheduled agent jobs and builds the ops page view.
package cron

import (
	"fmt"
	"strings"
)

// Job statuses reported by the runner.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Job is the status row of one scheduled job. Timestamps are unix milliseconds.
type Job struct {
	JobID             string  `json:"jobId"`
	Name              string  `json:"name"`
	Schedule          string  `json:"schedule"`
	Enabled           bool    `json:"enabled"`
	LastStatus        *string `json:"lastStatus,omitempty"`
	LastRunAt         *int64  `json:"lastRunAt,omitempty"`
	LastDurationMs    *int64  `json:"lastDurationMs,omitempty"`
	LastError         *string `json:"lastError,omitempty"`
	ConsecutiveErrors *int    `json:"consecutiveErrors,omitempty"`
	NextRunAt         *int64  `json:"nextRunAt,omitempty"`
	UpdatedAt         int64   `json:"updatedAt"`
}

// Validate checks required fields.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.JobID) == "" {
		return fmt.Errorf("jobId is required")
	}
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(j.Schedule) == "" {
		return fmt.Errorf("schedule is required")
	}
	return nil
}

// Status returns the last status, or "" if the job never ran.
func (j *Job) Status() string {
	if j.LastStatus == nil {
		return ""
	}
	return *j.LastStatus
}
