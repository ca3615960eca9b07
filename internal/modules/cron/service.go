package cron

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/mission-control/internal/modules/health"
	"github.com/rs/zerolog"
)

// JobRow is one job on the ops page with its display labels.
type JobRow struct {
	Job
	LastRunLabel  string `json:"lastRunLabel"`
	NextRunLabel  string `json:"nextRunLabel"`
	DurationLabel string `json:"durationLabel"`
}

// Counts summarises job health.
type Counts struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Error    int `json:"error"`
	NeverRan int `json:"neverRan"`
}

// OpsView is the systems page aggregate.
type OpsView struct {
	Jobs          []JobRow `json:"jobs"`
	Counts        Counts   `json:"counts"`
	LastSyncAt    *int64   `json:"lastSyncAt"`
	LastSyncLabel string   `json:"lastSyncLabel"`
}

// TimeAgo renders a past millisecond timestamp relative to now.
func TimeAgo(ts *int64, now time.Time) string {
	if ts == nil {
		return "never"
	}
	diff := now.Sub(time.UnixMilli(*ts))
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
}

// TimeUntil renders a future millisecond timestamp relative to now.
func TimeUntil(ts *int64, now time.Time) string {
	if ts == nil {
		return "—"
	}
	diff := time.UnixMilli(*ts).Sub(now)
	switch {
	case diff <= 0:
		return "due"
	case diff < time.Hour:
		return fmt.Sprintf("in %dm", int(diff/time.Minute)+1)
	case diff < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(diff/time.Hour))
	default:
		return fmt.Sprintf("in %dd", int(diff/(24*time.Hour)))
	}
}

// FormatDuration renders a run duration in milliseconds.
func FormatDuration(ms *int64) string {
	if ms == nil {
		return "—"
	}
	switch d := *ms; {
	case d < 1000:
		return fmt.Sprintf("%dms", d)
	case d < 60000:
		return fmt.Sprintf("%.1fs", float64(d)/1000)
	default:
		return fmt.Sprintf("%.1fm", float64(d)/60000)
	}
}

// BuildOpsView sorts failing jobs first, then by next run (unscheduled last).
func BuildOpsView(jobs []Job, lastSync *int64, now time.Time) OpsView {
	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ei, ej := sorted[i].Status() == StatusError, sorted[j].Status() == StatusError
		if ei != ej {
			return ei
		}
		ni, nj := sorted[i].NextRunAt, sorted[j].NextRunAt
		switch {
		case ni == nil && nj == nil:
			return false
		case ni == nil:
			return false
		case nj == nil:
			return true
		default:
			return *ni < *nj
		}
	})

	view := OpsView{
		Jobs:          make([]JobRow, 0, len(sorted)),
		LastSyncAt:    lastSync,
		LastSyncLabel: TimeAgo(lastSync, now),
	}
	for _, j := range sorted {
		view.Counts.Total++
		switch j.Status() {
		case StatusOK:
			view.Counts.OK++
		case StatusError:
			view.Counts.Error++
		case "":
			view.Counts.NeverRan++
		}
		view.Jobs = append(view.Jobs, JobRow{
			Job:           j,
			LastRunLabel:  TimeAgo(j.LastRunAt, now),
			NextRunLabel:  TimeUntil(j.NextRunAt, now),
			DurationLabel: FormatDuration(j.LastDurationMs),
		})
	}
	return view
}

// LastSyncSource reports when the ingestion side last pushed health data.
type LastSyncSource interface {
	GetLatest() (*health.Snapshot, error)
}

// Service builds the ops page view
type Service struct {
	repo     *Repository
	lastSync LastSyncSource
	log      zerolog.Logger
}

// NewService creates a new cron service
func NewService(repo *Repository, lastSync LastSyncSource, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		lastSync: lastSync,
		log:      log.With().Str("service", "cron").Logger(),
	}
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// GetView loads every job and the last sync time.
func (s *Service) GetView() (*OpsView, error) {
	jobs, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load cron jobs: %w", err)
	}

	var lastSync *int64
	if s.lastSync != nil {
		snapshot, err := s.lastSync.GetLatest()
		if err != nil {
			return nil, fmt.Errorf("failed to load last sync: %w", err)
		}
		if snapshot != nil {
			lastSync = &snapshot.UpdatedAt
		}
	}

	view := BuildOpsView(jobs, lastSync, s.repo.now())
	return &view, nil
}
