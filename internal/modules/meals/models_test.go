package meals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateFromLabel(t *testing.T) {
	ref := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		label string
		ref   time.Time
		want  string
	}{
		{"same year", "Monday 23 Feb", ref, "2026-02-23"},
		{"single digit day", "Sunday 1 Mar", ref, "2026-03-01"},
		{"lowercase month", "tuesday 24 feb", ref, "2026-02-24"},
		{"december written in january", "Wednesday 31 Dec", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "2025-12-31"},
		{"january written in december", "Friday 2 Jan", time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), "2026-01-02"},
		{"no day number", "Monday", ref, ""},
		{"unknown month", "Monday 23 Foo", ref, ""},
		{"impossible date", "Monday 31 Feb", ref, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateFromLabel(tt.label, tt.ref))
		})
	}
}

func TestPlanValidate(t *testing.T) {
	assert.Error(t, (&Plan{}).Validate())
	assert.Error(t, (&Plan{WeekLabel: "W09", Days: []PlanDay{{}}}).Validate())
	assert.Error(t, (&Plan{WeekLabel: "W09", Days: []PlanDay{{Day: "Mon", Date: "23/02"}}}).Validate())
	assert.NoError(t, (&Plan{WeekLabel: "W09", Days: []PlanDay{{Day: "Mon"}}}).Validate())
}

func TestValidateDay(t *testing.T) {
	assert.Error(t, ValidateDay("yesterday", nil))
	assert.Error(t, ValidateDay("2026-02-23", []Entry{{MealType: "Lunch"}}))
	assert.NoError(t, ValidateDay("2026-02-23", nil))
	assert.NoError(t, ValidateDay("2026-02-23", []Entry{{MealType: "Lunch", Name: "Pasta"}}))
}
