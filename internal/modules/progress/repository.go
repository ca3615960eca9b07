package progress

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/rs/zerolog"
)

// singletonID is the only primary key the singleton tables admit.
const singletonID = 1

// Repository handles the tes_character and ziolo_tracker singletons
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewRepository creates a new progress repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		log:          log.With().Str("repo", "progress").Logger(),
	}
}

// UpsertCharacter replaces the character state.
func (r *Repository) UpsertCharacter(state *CharacterState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	streaks, err := json.Marshal(nonNilMap(state.Streaks))
	if err != nil {
		return fmt.Errorf("failed to marshal streaks: %w", err)
	}
	badges := state.Badges
	if badges == nil {
		badges = []string{}
	}
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("failed to marshal badges: %w", err)
	}
	domains := state.Domains
	if domains == nil {
		domains = map[string]DomainProgress{}
	}
	domainsJSON, err := json.Marshal(domains)
	if err != nil {
		return fmt.Errorf("failed to marshal domains: %w", err)
	}

	now := database.NowMillis()
	_, err = r.db.Exec(`
		INSERT INTO tes_character
			(id, level, xp, total_xp, streaks, badges, domains, class_name, total_events, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			level = excluded.level,
			xp = excluded.xp,
			total_xp = excluded.total_xp,
			streaks = excluded.streaks,
			badges = excluded.badges,
			domains = excluded.domains,
			class_name = excluded.class_name,
			total_events = excluded.total_events,
			updated_at = excluded.updated_at
	`, singletonID, state.Level, state.XP, state.TotalXP, string(streaks), string(badgesJSON),
		string(domainsJSON), state.ClassName, state.TotalEvents, now)
	if err != nil {
		return fmt.Errorf("failed to upsert character: %w", err)
	}
	state.UpdatedAt = now

	r.log.Debug().Int("level", state.Level).Msg("Character state stored")
	r.eventManager.Emit(events.CharacterUpdated, "progress", map[string]interface{}{
		"level": state.Level,
		"xp":    state.XP,
	})
	return nil
}

// GetCharacter returns the character state, or nil if none was stored.
func (r *Repository) GetCharacter() (*CharacterState, error) {
	var state CharacterState
	var streaks, badges, domains string
	var className sql.NullString
	var totalEvents sql.NullInt64

	err := r.db.QueryRow(`
		SELECT level, xp, total_xp, streaks, badges, domains, class_name, total_events, updated_at
		FROM tes_character WHERE id = ?
	`, singletonID).Scan(&state.Level, &state.XP, &state.TotalXP, &streaks, &badges, &domains,
		&className, &totalEvents, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	if err := json.Unmarshal([]byte(streaks), &state.Streaks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal streaks: %w", err)
	}
	if err := json.Unmarshal([]byte(badges), &state.Badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	if err := json.Unmarshal([]byte(domains), &state.Domains); err != nil {
		return nil, fmt.Errorf("failed to unmarshal domains: %w", err)
	}
	if className.Valid {
		state.ClassName = &className.String
	}
	if totalEvents.Valid {
		n := int(totalEvents.Int64)
		state.TotalEvents = &n
	}

	return &state, nil
}

// UpsertZiolo replaces the habit tracker.
func (r *Repository) UpsertZiolo(tracker *ZioloTracker) error {
	if err := tracker.Validate(); err != nil {
		return err
	}

	now := database.NowMillis()
	_, err := r.db.Exec(`
		INSERT INTO ziolo_tracker
			(id, current_streak, last_use_date, monthly_use_days, monthly_goal, yearly_use_days, yearly_goal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_streak = excluded.current_streak,
			last_use_date = excluded.last_use_date,
			monthly_use_days = excluded.monthly_use_days,
			monthly_goal = excluded.monthly_goal,
			yearly_use_days = excluded.yearly_use_days,
			yearly_goal = excluded.yearly_goal,
			updated_at = excluded.updated_at
	`, singletonID, tracker.CurrentStreak, tracker.LastUseDate, tracker.MonthlyUseDays,
		tracker.MonthlyGoal, tracker.YearlyUseDays, tracker.YearlyGoal, now)
	if err != nil {
		return fmt.Errorf("failed to upsert ziolo tracker: %w", err)
	}
	tracker.UpdatedAt = now

	r.eventManager.Emit(events.ZioloUpdated, "progress", map[string]interface{}{
		"current_streak": tracker.CurrentStreak,
		"last_use_date":  tracker.LastUseDate,
	})
	return nil
}

// GetZiolo returns the habit tracker, or nil if none was stored.
func (r *Repository) GetZiolo() (*ZioloTracker, error) {
	var z ZioloTracker
	err := r.db.QueryRow(`
		SELECT current_streak, last_use_date, monthly_use_days, monthly_goal, yearly_use_days, yearly_goal, updated_at
		FROM ziolo_tracker WHERE id = ?
	`, singletonID).Scan(&z.CurrentStreak, &z.LastUseDate, &z.MonthlyUseDays, &z.MonthlyGoal,
		&z.YearlyUseDays, &z.YearlyGoal, &z.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ziolo tracker: %w", err)
	}
	return &z, nil
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
