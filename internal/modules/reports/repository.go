package reports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/utils"
	"github.com/rs/zerolog"
)

// Weekly migration defaults.
const (
	WeeklyReportType       = "weekly-report"
	migratedSummaryRunes   = 500
	migratedSummary        = "Weekly report"
	migratedContent        = "No content available"
	migratedDeliveryTarget = "mission-control"
)

const weeklyColumns = `id, domain, report_date, title, summary, source_path, content, updated_at`

// Repository handles reports and weekly_reports
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	now          func() time.Time
	log          zerolog.Logger
}

// NewRepository creates a new reports repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		now:          time.Now,
		log:          log.With().Str("repo", "reports").Logger(),
	}
}

// UpsertReport replaces the report for rep.ReportID and stamps created_at.
func (r *Repository) UpsertReport(rep *Report) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	if rep.DeliveredTo == nil {
		rep.DeliveredTo = []string{}
	}
	delivered, err := json.Marshal(rep.DeliveredTo)
	if err != nil {
		return fmt.Errorf("failed to marshal delivered_to: %w", err)
	}
	var metrics interface{}
	if rep.HasMetrics() {
		metrics = string(rep.Metrics)
	}

	now := r.now().UnixMilli()
	_, err = r.db.Exec(`
		INSERT INTO reports
			(report_id, agent, report_type, date, title, summary, content, content_overflow, metrics, delivered_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_id) DO UPDATE SET
			agent = excluded.agent,
			report_type = excluded.report_type,
			date = excluded.date,
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			content_overflow = excluded.content_overflow,
			metrics = excluded.metrics,
			delivered_to = excluded.delivered_to,
			created_at = excluded.created_at
	`, rep.ReportID, rep.Agent, rep.ReportType, rep.Date, rep.Title, rep.Summary, rep.Content,
		rep.ContentOverflow, metrics, string(delivered), now)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	rep.CreatedAt = now

	r.eventManager.Emit(events.ReportUpdated, "reports", map[string]interface{}{
		"report_id": rep.ReportID,
		"agent":     rep.Agent,
	})
	return nil
}

// ListReports returns report summaries, newest date first. agent takes precedence
// over reportType; both empty lists everything.
func (r *Repository) ListReports(agent, reportType string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT report_id, agent, report_type, date, title, summary, delivered_to, created_at,
		metrics IS NOT NULL FROM reports`
	var args []interface{}
	switch {
	case agent != "":
		query += " WHERE agent = ?"
		args = append(args, agent)
	case reportType != "":
		query += " WHERE report_type = ?"
		args = append(args, reportType)
	}
	query += " ORDER BY date DESC, created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	result := []Summary{}
	for rows.Next() {
		var s Summary
		var delivered string
		if err := rows.Scan(&s.ReportID, &s.Agent, &s.ReportType, &s.Date, &s.Title, &s.Summary,
			&delivered, &s.CreatedAt, &s.HasMetrics); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(delivered), &s.DeliveredTo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delivered_to: %w", err)
		}
		if s.DeliveredTo == nil {
			s.DeliveredTo = []string{}
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return result, nil
}

// GetReport returns the full report, or nil.
func (r *Repository) GetReport(reportID string) (*Report, error) {
	var rep Report
	var overflow, metrics sql.NullString
	var delivered string
	err := r.db.QueryRow(`
		SELECT report_id, agent, report_type, date, title, summary, content, content_overflow,
			metrics, delivered_to, created_at
		FROM reports
		WHERE report_id = ?
	`, reportID).Scan(&rep.ReportID, &rep.Agent, &rep.ReportType, &rep.Date, &rep.Title, &rep.Summary,
		&rep.Content, &overflow, &metrics, &delivered, &rep.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if overflow.Valid {
		rep.ContentOverflow = &overflow.String
	}
	if metrics.Valid {
		rep.Metrics = json.RawMessage(metrics.String)
	}
	if err := json.Unmarshal([]byte(delivered), &rep.DeliveredTo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal delivered_to: %w", err)
	}
	if rep.DeliveredTo == nil {
		rep.DeliveredTo = []string{}
	}
	return &rep, nil
}

// UpsertWeekly replaces the weekly report for (w.Domain, w.ReportDate).
func (r *Repository) UpsertWeekly(w *WeeklyReport) error {
	if err := w.Validate(); err != nil {
		return err
	}

	now := r.now().UnixMilli()
	err := r.db.QueryRow(`
		INSERT INTO weekly_reports (domain, report_date, title, summary, source_path, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, report_date) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			source_path = excluded.source_path,
			content = excluded.content,
			updated_at = excluded.updated_at
		RETURNING id
	`, w.Domain, w.ReportDate, w.Title, w.Summary, w.SourcePath, w.Content, now).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly report: %w", err)
	}
	w.UpdatedAt = now

	r.eventManager.Emit(events.WeeklyReportUpdated, "reports", map[string]interface{}{
		"domain":      w.Domain,
		"report_date": w.ReportDate,
	})
	return nil
}

// ListWeekly returns weekly reports newest first, optionally for one domain.
func (r *Repository) ListWeekly(domain string) ([]WeeklyReport, error) {
	query := `SELECT ` + weeklyColumns + ` FROM weekly_reports`
	var args []interface{}
	if domain != "" {
		query += " WHERE domain = ?"
		args = append(args, domain)
	}
	query += " ORDER BY report_date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly reports: %w", err)
	}
	defer rows.Close()

	result := []WeeklyReport{}
	for rows.Next() {
		w, err := scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly reports: %w", err)
	}

	return result, nil
}

// GetWeekly returns one weekly report by id, or nil.
func (r *Repository) GetWeekly(id int64) (*WeeklyReport, error) {
	row := r.db.QueryRow(`SELECT `+weeklyColumns+` FROM weekly_reports WHERE id = ?`, id)
	w, err := scanWeekly(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWeekly(s scanner) (*WeeklyReport, error) {
	var w WeeklyReport
	var summary, sourcePath, content sql.NullString
	if err := s.Scan(&w.ID, &w.Domain, &w.ReportDate, &w.Title, &summary, &sourcePath, &content, &w.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan weekly report: %w", err)
	}
	if summary.Valid {
		w.Summary = &summary.String
	}
	if sourcePath.Valid {
		w.SourcePath = &sourcePath.String
	}
	if content.Valid {
		w.Content = &content.String
	}
	return &w, nil
}

// MigratedReport converts a weekly report into its reports-table form.
func MigratedReport(w WeeklyReport) Report {
	agent := AgentForDomain(w.Domain)

	title := w.Title
	if title == "" {
		title = fmt.Sprintf("%s weekly %s", agent, w.ReportDate)
	}
	summary := ""
	if w.Summary != nil {
		summary = utils.Truncate(*w.Summary, migratedSummaryRunes)
	}
	if summary == "" {
		summary = migratedSummary
	}
	content := ""
	if w.Content != nil {
		content = *w.Content
	}
	if content == "" {
		content = migratedContent
	}

	return Report{
		ReportID:    fmt.Sprintf("%s-%s-%s", agent, WeeklyReportType, w.ReportDate),
		Agent:       agent,
		ReportType:  WeeklyReportType,
		Date:        w.ReportDate,
		Title:       title,
		Summary:     summary,
		Content:     content,
		DeliveredTo: []string{migratedDeliveryTarget},
	}
}

// MigrateWeekly copies every weekly report into reports. Re-running overwrites
// the same report ids.
func (r *Repository) MigrateWeekly() (int, error) {
	weekly, err := r.ListWeekly("")
	if err != nil {
		return 0, err
	}

	migrated := 0
	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		now := r.now().UnixMilli()
		for _, w := range weekly {
			rep := MigratedReport(w)
			_, err := tx.Exec(`
				INSERT INTO reports
					(report_id, agent, report_type, date, title, summary, content, delivered_to, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(report_id) DO UPDATE SET
					agent = excluded.agent,
					report_type = excluded.report_type,
					date = excluded.date,
					title = excluded.title,
					summary = excluded.summary,
					content = excluded.content,
					delivered_to = excluded.delivered_to,
					created_at = excluded.created_at
			`, rep.ReportID, rep.Agent, rep.ReportType, rep.Date, rep.Title, rep.Summary, rep.Content,
				`["`+migratedDeliveryTarget+`"]`, now)
			if err != nil {
				return fmt.Errorf("failed to migrate %s: %w", rep.ReportID, err)
			}
			migrated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info().Int("migrated", migrated).Msg("Weekly reports migrated")
	if migrated > 0 {
		r.eventManager.Emit(events.ReportUpdated, "reports", map[string]interface{}{
			"migrated": migrated,
		})
	}
	return migrated, nil
}
