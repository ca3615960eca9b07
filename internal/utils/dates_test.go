package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-23", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 23, d.Day())

	_, err = ParseDate("23/02/2025", time.UTC)
	assert.Error(t, err)
	assert.Error(t, ValidateDate("2025-13-01"))
	assert.NoError(t, ValidateDate("2024-02-29"))
}

func TestFormatDate_UsesLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 23:30 UTC is already the next day in Rome.
	instant := time.Date(2025, 1, 4, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-04", FormatDate(instant, time.UTC))
	assert.Equal(t, "2025-01-05", FormatDate(instant, rome))
}

func TestDaysBetween(t *testing.T) {
	days, ok := DaysBetween("2025-01-03", "2025-01-05")
	assert.True(t, ok)
	assert.Equal(t, 2, days)

	days, ok = DaysBetween("2025-03-29", "2025-03-31")
	assert.True(t, ok)
	assert.Equal(t, 2, days)

	days, ok = DaysBetween("2025-01-05", "2025-01-03")
	assert.True(t, ok)
	assert.Equal(t, -2, days)

	_, ok = DaysBetween("bad", "2025-01-03")
	assert.False(t, ok)
}
