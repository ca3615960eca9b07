package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func MyFunction() {
//	    defer utils.OperationTimer("my_function", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > 30*time.Second {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
	}
}

// MeasureQuery measures a read and reports how many rows it produced.
func MeasureQuery(queryName string, log zerolog.Logger) func(rows int) {
	start := time.Now()

	return func(rows int) {
		duration := time.Since(start)

		log.Debug().
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int("rows", rows).
			Msg("Query completed")

		if duration > time.Second {
			log.Warn().
				Str("query", queryName).
				Dur("duration", duration).
				Int("rows", rows).
				Msg("Slow query detected")
		}
	}
}
