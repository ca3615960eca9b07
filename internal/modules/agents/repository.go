package agents

import (
	"database/sql"
	"fmt"

	"github.com/aristath/mission-control/internal/database"
	"github.com/aristath/mission-control/internal/events"
	"github.com/rs/zerolog"
)

// Repository handles the agent_status table
type Repository struct {
	db           *sql.DB
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewRepository creates a new agent status repository
func NewRepository(db *sql.DB, eventManager *events.Manager, log zerolog.Logger) *Repository {
	return &Repository{
		db:           db,
		eventManager: eventManager,
		log:          log.With().Str("repo", "agents").Logger(),
	}
}

// Upsert replaces the status row for s.AgentID.
func (r *Repository) Upsert(s *Status) error {
	if err := s.Validate(); err != nil {
		return err
	}

	now := database.NowMillis()
	_, err := r.db.Exec(`
		INSERT INTO agent_status
			(agent_id, name, emoji, last_action, last_heartbeat, status, error_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			name = excluded.name,
			emoji = excluded.emoji,
			last_action = excluded.last_action,
			last_heartbeat = excluded.last_heartbeat,
			status = excluded.status,
			error_count = excluded.error_count,
			updated_at = excluded.updated_at
	`, s.AgentID, s.Name, s.Emoji, s.LastAction, s.LastHeartbeat, s.Status, s.ErrorCount, now)
	if err != nil {
		return fmt.Errorf("failed to upsert agent status: %w", err)
	}
	s.UpdatedAt = now

	r.eventManager.Emit(events.AgentStatusUpdated, "agents", map[string]interface{}{
		"agent_id": s.AgentID,
		"status":   s.Status,
	})
	return nil
}

// List returns every agent ordered by id.
func (r *Repository) List() ([]Status, error) {
	rows, err := r.db.Query(`
		SELECT agent_id, name, emoji, last_action, last_heartbeat, status, error_count, updated_at
		FROM agent_status
		ORDER BY agent_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent statuses: %w", err)
	}
	defer rows.Close()

	result := []Status{}
	for rows.Next() {
		var s Status
		var lastAction sql.NullString
		var lastHeartbeat, errorCount sql.NullInt64

		if err := rows.Scan(&s.AgentID, &s.Name, &s.Emoji, &lastAction, &lastHeartbeat, &s.Status, &errorCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent status: %w", err)
		}
		if lastAction.Valid {
			s.LastAction = &lastAction.String
		}
		if lastHeartbeat.Valid {
			s.LastHeartbeat = &lastHeartbeat.Int64
		}
		if errorCount.Valid {
			n := int(errorCount.Int64)
			s.ErrorCount = &n
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent statuses: %w", err)
	}

	return result, nil
}
