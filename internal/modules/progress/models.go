// Package progress stores the gamified character state and the ziolo habit tracker,
// and folds them into the progress page view.
package progress

import (
	"fmt"

	"github.com/aristath/mission-control/internal/utils"
)

// DomainProgress is the level state of one skill domain (Movement, Mind, Money...).
// Field names follow the ingestion payload.
type DomainProgress struct {
	Level     float64 `json:"level"`
	XPInLevel float64 `json:"xp_in_level"`
	XPToNext  float64 `json:"xp_to_next"`
}

// CharacterState is the singleton "tes" character row.
type CharacterState struct {
	Level       int                       `json:"level"`
	XP          float64                   `json:"xp"`
	TotalXP     float64                   `json:"totalXp"`
	Streaks     map[string]interface{}    `json:"streaks"`
	Badges      []string                  `json:"badges"`
	Domains     map[string]DomainProgress `json:"domains"`
	ClassName   *string                   `json:"className,omitempty"`
	TotalEvents *int                      `json:"totalEvents,omitempty"`
	UpdatedAt   int64                     `json:"updatedAt"`
}

// Validate checks the payload before it is stored.
func (c *CharacterState) Validate() error {
	if c.Level < 0 {
		return fmt.Errorf("level must not be negative")
	}
	if c.XP < 0 || c.TotalXP < 0 {
		return fmt.Errorf("xp must not be negative")
	}
	return nil
}

// ZioloTracker is the singleton habit tracker row.
type ZioloTracker struct {
	CurrentStreak  int    `json:"currentStreak"`
	LastUseDate    string `json:"lastUseDate"`
	MonthlyUseDays int    `json:"monthlyUseDays"`
	MonthlyGoal    int    `json:"monthlyGoal"`
	YearlyUseDays  int    `json:"yearlyUseDays"`
	YearlyGoal     int    `json:"yearlyGoal"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// Validate checks the payload before it is stored.
func (z *ZioloTracker) Validate() error {
	if err := utils.ValidateDate(z.LastUseDate); err != nil {
		return fmt.Errorf("lastUseDate: %w", err)
	}
	if z.CurrentStreak < 0 || z.MonthlyUseDays < 0 || z.YearlyUseDays < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	if z.MonthlyGoal <= 0 || z.YearlyGoal <= 0 {
		return fmt.Errorf("goals must be positive")
	}
	return nil
}
