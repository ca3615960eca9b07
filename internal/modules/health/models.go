// Package health stores daily wearable snapshots and builds the health page view.
package health

import (
	"fmt"

	"github.com/aristath/mission-control/internal/utils"
)

// Snapshot is one calendar day of health metrics. Absent metrics stay nil.
type Snapshot struct {
	Date              string   `json:"date"`
	HRV               *float64 `json:"hrv,omitempty"`
	SleepScore        *float64 `json:"sleepScore,omitempty"`
	SleepHours        *float64 `json:"sleepHours,omitempty"`
	Stress            *float64 `json:"stress,omitempty"`
	BodyBattery       *float64 `json:"bodyBattery,omitempty"`
	BodyBatteryHigh   *float64 `json:"bodyBatteryHigh,omitempty"`
	BodyBatteryLow    *float64 `json:"bodyBatteryLow,omitempty"`
	RestingHR         *float64 `json:"restingHR,omitempty"`
	Steps             *float64 `json:"steps,omitempty"`
	ActiveCalories    *float64 `json:"activeCalories,omitempty"`
	TrainingReadiness *float64 `json:"trainingReadiness,omitempty"`
	UpdatedAt         int64    `json:"updatedAt"`
}

// Validate checks the natural key.
func (s *Snapshot) Validate() error {
	if err := utils.ValidateDate(s.Date); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	return nil
}
