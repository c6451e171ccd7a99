package logger

import (
	"time"

	"go.uber.org/zap"
)

// Track logs how long an operation took. Use it with defer:
//
//	defer logger.Track(log, "rebuild_occupation_stats")()
func Track(log *zap.Logger, operation string, fields ...zap.Field) func() {
	start := time.Now()
	return func() {
		if log == nil {
			return
		}
		log.Debug("operation finished",
			append(fields,
				zap.String("operation", operation),
				zap.Duration("elapsed", time.Since(start)),
			)...,
		)
	}
}
