package activities

import (
	"database/sql"
	"fmt"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles the activities table
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewRepository creates a new activities repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		log:          log.With().Str("repo", "activities").Logger(),
	}
}

// Insert appends an activity. Activities have no natural key, so every call adds a row.
func (r *Repository) Insert(a *Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.ID = uuid.New().String()
	a.CreatedAt = database.NowMillis()

	_, err := r.db.Exec(`
		INSERT INTO activities (id, date, type, name, duration, calories, distance, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Date, a.Type, a.Name, a.Duration, a.Calories, a.Distance, a.Source, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	r.eventManager.Emit(events.ActivityAdded, "activities", map[string]interface{}{
		"id":   a.ID,
		"date": a.Date,
		"type": a.Type,
	})
	return nil
}

// List returns the most recent days*RowsPerDay activities, newest date first.
func (r *Repository) List(days int) ([]Activity, error) {
	result := []Activity{}
	if days <= 0 {
		return result, nil
	}

	rows, err := r.db.Query(`
		SELECT id, date, type, name, duration, calories, distance, source, created_at
		FROM activities
		ORDER BY date DESC, created_at DESC
		LIMIT ?
	`, days*RowsPerDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Activity
		var duration, calories, distance sql.NullFloat64
		var source sql.NullString

		if err := rows.Scan(&a.ID, &a.Date, &a.Type, &a.Name, &duration, &calories, &distance, &source, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if duration.Valid {
			a.Duration = &duration.Float64
		}
		if calories.Valid {
			a.Calories = &calories.Float64
		}
		if distance.Valid {
			a.Distance = &distance.Float64
		}
		if source.Valid {
			a.Source = &source.String
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return result, nil
}
