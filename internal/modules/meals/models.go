// Package meals stores the per-day meal log and weekly meal plans and builds the plan-vs-actual view.
package meals

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/mission-control/internal/utils"
)

// RowsPerDay bounds GetLog to days*RowsPerDay entries.
const RowsPerDay = 10

// Entry is one logged meal item.
type Entry struct {
	ID        int64    `json:"id"`
	Date      string   `json:"date"`
	MealType  string   `json:"mealType"`
	Name      string   `json:"name"`
	Kcal      float64  `json:"kcal"`
	Protein   float64  `json:"protein"`
	Carbs     float64  `json:"carbs"`
	Fat       float64  `json:"fat"`
	SatFat    *float64 `json:"satFat,omitempty"`
	Fiber     *float64 `json:"fiber,omitempty"`
	UpdatedAt int64    `json:"updatedAt"`
}

// Validate checks required fields. Date is supplied by ReplaceDay.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.MealType) == "" {
		return fmt.Errorf("mealType is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ValidateDay checks a ReplaceDay payload.
func ValidateDay(date string, entries []Entry) error {
	if err := utils.ValidateDate(date); err != nil {
		return err
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("meals[%d]: %w", i, err)
		}
	}
	return nil
}

// PlannedMeal is one meal inside a plan day.
type PlannedMeal struct {
	Name    string  `json:"name"`
	Items   string  `json:"items"`
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// PlanDay is one day of a weekly plan. Date is the canonical ISO date used to
// match logged meals; it is empty when the label could not be resolved.
type PlanDay struct {
	Date         string        `json:"date"`
	Day          string        `json:"day"`
	IsFish       bool          `json:"isFish,omitempty"`
	Meals        []PlannedMeal `json:"meals"`
	TotalKcal    float64       `json:"totalKcal"`
	TotalProtein float64       `json:"totalProtein"`
	TotalCarbs   float64       `json:"totalCarbs"`
	TotalFat     float64       `json:"totalFat"`
	SatFat       *float64      `json:"satFat,omitempty"`
	Note         *string       `json:"note,omitempty"`
}

// Plan is a weekly meal plan keyed by its label.
type Plan struct {
	WeekLabel string    `json:"weekLabel"`
	Days      []PlanDay `json:"days"`
	Summary   *string   `json:"summary,omitempty"`
	UpdatedAt int64     `json:"updatedAt"`
}

// Validate checks required fields and any explicit day dates.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.WeekLabel) == "" {
		return fmt.Errorf("weekLabel is required")
	}
	for i, d := range p.Days {
		if strings.TrimSpace(d.Day) == "" {
			return fmt.Errorf("days[%d].day is required", i)
		}
		if d.Date != "" {
			if err := utils.ValidateDate(d.Date); err != nil {
				return fmt.Errorf("days[%d]: %w", i, err)
			}
		}
	}
	return nil
}

var dayLabelPattern = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3})`)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// DateFromLabel resolves a plan day label such as "Monday 23 Feb" to an ISO date.
// The year is the one (ref's, or either neighbour) that lands nearest to ref.
// Labels without a valid day number and month abbreviation return "".
func DateFromLabel(label string, ref time.Time) string {
	m := dayLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	month, ok := monthAbbrev[strings.ToLower(m[2])]
	if !ok {
		return ""
	}

	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	var best time.Time
	for _, year := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if candidate.Day() != day {
			continue
		}
		if best.IsZero() || absDuration(candidate.Sub(ref)) < absDuration(best.Sub(ref)) {
			best = candidate
		}
	}
	if best.IsZero() {
		return ""
	}
	return best.Format(utils.DateLayout)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
