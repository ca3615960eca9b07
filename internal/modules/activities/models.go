// Package activities stores the append-only workout/activity log.
package activities

import (
	"fmt"
	"strings"

	"github.com/aristath/mission-control/internal/utils"
)

// RowsPerDay approximates how many activities one day contributes to a days-based window.
const RowsPerDay = 10

// Activity is one logged activity.
type Activity struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Duration  *float64 `json:"duration,omitempty"`
	Calories  *float64 `json:"calories,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`
	Source    *string  `json:"source,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// Validate checks required fields.
func (a *Activity) Validate() error {
	if err := utils.ValidateDate(a.Date); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(a.Type) == "" {
		return fmt.Errorf("type is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
