package health

import (
	"database/sql"
	"fmt"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/rs/zerolog"
)

const snapshotColumns = `date, hrv, sleep_score, sleep_hours, stress, body_battery, body_battery_high,
	body_battery_low, resting_hr, steps, active_calories, training_readiness, updated_at`

// Repository handles health_snapshots
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewRepository creates a new health repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		log:          log.With().Str("repo", "health").Logger(),
	}
}

// Upsert inserts or replaces the snapshot for its date.
func (r *Repository) Upsert(s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	now := database.NowMillis()
	_, err := r.db.Exec(`
		INSERT INTO health_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			hrv = excluded.hrv,
			sleep_score = excluded.sleep_score,
			sleep_hours = excluded.sleep_hours,
			stress = excluded.stress,
			body_battery = excluded.body_battery,
			body_battery_high = excluded.body_battery_high,
			body_battery_low = excluded.body_battery_low,
			resting_hr = excluded.resting_hr,
			steps = excluded.steps,
			active_calories = excluded.active_calories,
			training_readiness = excluded.training_readiness,
			updated_at = excluded.updated_at
	`, s.Date, s.HRV, s.SleepScore, s.SleepHours, s.Stress, s.BodyBattery, s.BodyBatteryHigh,
		s.BodyBatteryLow, s.RestingHR, s.Steps, s.ActiveCalories, s.TrainingReadiness, now)
	if err != nil {
		return fmt.Errorf("failed to upsert health snapshot: %w", err)
	}
	s.UpdatedAt = now

	r.eventManager.Emit(events.HealthUpdated, "health", map[string]interface{}{
		"date": s.Date,
	})
	return nil
}

// GetLatest returns the snapshot with the greatest date, or nil.
func (r *Repository) GetLatest() (*Snapshot, error) {
	row := r.db.QueryRow(`SELECT ` + snapshotColumns + ` FROM health_snapshots ORDER BY date DESC LIMIT 1`)
	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest health snapshot: %w", err)
	}
	return s, nil
}

// GetHistory returns the most recent days snapshots in ascending date order.
func (r *Repository) GetHistory(days int) ([]Snapshot, error) {
	if days <= 0 {
		return []Snapshot{}, nil
	}

	rows, err := r.db.Query(`SELECT `+snapshotColumns+` FROM health_snapshots ORDER BY date DESC LIMIT ?`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query health history: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health snapshot: %w", err)
		}
		history = append(history, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health history: %w", err)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var s Snapshot
	var hrv, sleepScore, sleepHours, stress, bb, bbHigh, bbLow, rhr, steps, calories, readiness sql.NullFloat64

	if err := row.Scan(&s.Date, &hrv, &sleepScore, &sleepHours, &stress, &bb, &bbHigh, &bbLow,
		&rhr, &steps, &calories, &readiness, &s.UpdatedAt); err != nil {
		return nil, err
	}

	s.HRV = nullFloat(hrv)
	s.SleepScore = nullFloat(sleepScore)
	s.SleepHours = nullFloat(sleepHours)
	s.Stress = nullFloat(stress)
	s.BodyBattery = nullFloat(bb)
	s.BodyBatteryHigh = nullFloat(bbHigh)
	s.BodyBatteryLow = nullFloat(bbLow)
	s.RestingHR = nullFloat(rhr)
	s.Steps = nullFloat(steps)
	s.ActiveCalories = nullFloat(calories)
	s.TrainingReadiness = nullFloat(readiness)
	return &s, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
