package server

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/livequery"
	"github.com/aristath/mission-control/internal/reliability"
	"github.com/aristath/mission-control/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status            string          `json:"status"`
	StartedAt         string          `json:"startedAt"`
	UptimeSeconds     int64           `json:"uptimeSeconds"`
	Database          *database.Stats `json:"database,omitempty"`
	CPUPercent        float64         `json:"cpuPercent"`
	MemoryPercent     float64         `json:"memoryPercent"`
	DiskFreeGB        float64         `json:"diskFreeGb"`
	EventSubscribers  int             `json:"eventSubscribers"`
	LiveSubscriptions int             `json:"liveSubscriptions"`
	Jobs              []string        `json:"jobs"`
	BackupConfigured  bool            `json:"backupConfigured"`
}

// HostStats samples CPU and RAM usage percentages and free disk for a path.
type HostStats func(path string) (cpuPercent, memPercent, diskFreeGB float64)

// SystemHandlers handles system-wide monitoring and operations
type SystemHandlers struct {
	db        *database.DB
	dataDir   string
	bus       *events.Bus
	hub       *livequery.Hub
	backup    *reliability.BackupService
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	startedAt time.Time
	hostStats HostStats
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance. backup may be nil.
func NewSystemHandlers(
	db *database.DB,
	dataDir string,
	bus *events.Bus,
	hub *livequery.Hub,
	backup *reliability.BackupService,
	sched *scheduler.Scheduler,
	jobs map[string]scheduler.Job,
	log zerolog.Logger,
) *SystemHandlers {
	h := &SystemHandlers{
		db:        db,
		dataDir:   dataDir,
		bus:       bus,
		hub:       hub,
		backup:    backup,
		scheduler: sched,
		jobs:      jobs,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.hostStats = h.sampleHost
	return h
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Get("/backups", h.HandleListBackups)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		Status:           "healthy",
		StartedAt:        h.startedAt.Format(time.RFC3339),
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
		BackupConfigured: h.backup != nil,
		Jobs:             make([]string, 0, len(h.jobs)),
	}

	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database ping failed")
		resp.Status = "degraded"
	}

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		resp.Status = "degraded"
	} else {
		resp.Database = stats
	}

	resp.CPUPercent, resp.MemoryPercent, resp.DiskFreeGB = h.hostStats(h.dataDir)

	if h.bus != nil {
		resp.EventSubscribers = h.bus.SubscriberCount()
	}
	if h.hub != nil {
		resp.LiveSubscriptions = h.hub.SubscriptionCount()
	}

	for name := range h.jobs {
		resp.Jobs = append(resp.Jobs, name)
	}
	sort.Strings(resp.Jobs)

	respond(w, http.StatusOK, resp)
}

// HandleTriggerBackup handles POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "Backups are not configured", http.StatusServiceUnavailable)
		return
	}

	info, err := h.backup.CreateAndUploadBackup(r.Context())
	if errors.Is(err, reliability.ErrBackupInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed", http.StatusInternalServerError)
		return
	}

	respond(w, http.StatusOK, info)
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "Backups are not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.backup.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	respond(w, http.StatusOK, backups)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	start := time.Now()
	if err := h.scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, "Job failed", http.StatusInternalServerError)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"job":        name,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

// sampleHost calculates CPU, RAM and disk figures with gopsutil
func (h *SystemHandlers) sampleHost(path string) (float64, float64, float64) {
	var cpuAvg, memPercent, diskFree float64

	// 100ms sample keeps the endpoint responsive
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	if memStat, err := mem.VirtualMemory(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		memPercent = memStat.UsedPercent
	}

	if usage, err := disk.Usage(path); err != nil {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	} else {
		diskFree = float64(usage.Free) / 1e9
	}

	return cpuAvg, memPercent, diskFree
}
