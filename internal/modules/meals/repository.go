package meals

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/rs/zerolog"
)

// Repository handles meal_log and meal_plans
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	loc          *time.Location
	now          func() time.Time
	log          zerolog.Logger
}

// NewRepository creates a new meals repository. loc is the calendar used to
// resolve plan day labels.
func NewRepository(db *sql.DB, eventManager *events.Manager, loc *time.Location, log zerolog.Logger) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{
		db:           db,
		eventManager: eventManager,
		loc:          loc,
		now:          time.Now,
		log:          log.With().Str("repo", "meals").Logger(),
	}
}

// ReplaceDay atomically replaces every log entry for date with entries.
// An empty slice clears the day.
func (r *Repository) ReplaceDay(date string, entries []Entry) ([]Entry, error) {
	if err := ValidateDay(date, entries); err != nil {
		return nil, err
	}

	now := r.now().UnixMilli()
	result := make([]Entry, 0, len(entries))

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM meal_log WHERE date = ?", date); err != nil {
			return fmt.Errorf("failed to clear meal log: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO meal_log (date, meal_type, name, kcal, protein, carbs, fat, sat_fat, fiber, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare meal insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			res, err := stmt.Exec(date, e.MealType, e.Name, e.Kcal, e.Protein, e.Carbs, e.Fat, e.SatFat, e.Fiber, now)
			if err != nil {
				return fmt.Errorf("failed to insert meal: %w", err)
			}
			e.ID, _ = res.LastInsertId()
			e.Date = date
			e.UpdatedAt = now
			result = append(result, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug().Str("date", date).Int("entries", len(result)).Msg("Meal log day replaced")
	r.eventManager.Emit(events.MealLogReplaced, "meals", map[string]interface{}{
		"date":    date,
		"entries": len(result),
	})
	return result, nil
}

// GetLog returns up to days*RowsPerDay entries, newest date first.
func (r *Repository) GetLog(days int) ([]Entry, error) {
	rows, err := r.db.Query(`
		SELECT id, date, meal_type, name, kcal, protein, carbs, fat, sat_fat, fiber, updated_at
		FROM meal_log
		ORDER BY date DESC, id ASC
		LIMIT ?
	`, days*RowsPerDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal log: %w", err)
	}
	defer rows.Close()

	result := []Entry{}
	for rows.Next() {
		var e Entry
		var satFat, fiber sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Date, &e.MealType, &e.Name, &e.Kcal, &e.Protein, &e.Carbs, &e.Fat,
			&satFat, &fiber, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if satFat.Valid {
			e.SatFat = &satFat.Float64
		}
		if fiber.Valid {
			e.Fiber = &fiber.Float64
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meal log: %w", err)
	}

	return result, nil
}

// UpsertPlan replaces the plan for p.WeekLabel, resolving missing day dates from their labels.
func (r *Repository) UpsertPlan(p *Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	ref := r.now().In(r.loc)
	if p.Days == nil {
		p.Days = []PlanDay{}
	}
	for i := range p.Days {
		if p.Days[i].Date == "" {
			p.Days[i].Date = DateFromLabel(p.Days[i].Day, ref)
		}
		if p.Days[i].Meals == nil {
			p.Days[i].Meals = []PlannedMeal{}
		}
	}

	daysJSON, err := json.Marshal(p.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal plan days: %w", err)
	}

	now := r.now().UnixMilli()
	_, err = r.db.Exec(`
		INSERT INTO meal_plans (week_label, days, summary, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(week_label) DO UPDATE SET
			days = excluded.days,
			summary = excluded.summary,
			updated_at = excluded.updated_at
	`, p.WeekLabel, string(daysJSON), p.Summary, now)
	if err != nil {
		return fmt.Errorf("failed to upsert meal plan: %w", err)
	}
	p.UpdatedAt = now

	r.eventManager.Emit(events.MealPlanUpdated, "meals", map[string]interface{}{
		"week_label": p.WeekLabel,
		"days":       len(p.Days),
	})
	return nil
}

// LatestPlan returns the plan with the greatest week label, or nil.
func (r *Repository) LatestPlan() (*Plan, error) {
	var p Plan
	var days string
	var summary sql.NullString
	err := r.db.QueryRow(`
		SELECT week_label, days, summary, updated_at
		FROM meal_plans
		ORDER BY week_label DESC
		LIMIT 1
	`).Scan(&p.WeekLabel, &days, &summary, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest meal plan: %w", err)
	}

	if err := json.Unmarshal([]byte(days), &p.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan days: %w", err)
	}
	if p.Days == nil {
		p.Days = []PlanDay{}
	}
	if summary.Valid {
		p.Summary = &summary.String
	}
	return &p, nil
}
