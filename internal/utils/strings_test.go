package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "whitespace only", input: "  ,  ", expected: nil},
		{name: "single value", input: "HEALTH_UPDATED", expected: []string{"HEALTH_UPDATED"}},
		{name: "varied spacing", input: "a,  b , c", expected: []string{"a", "b", "c"}},
		{name: "duplicates dropped", input: "a,b,a", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "caffè", Truncate("caffè latte", 5), "counts runes, not bytes")
}
