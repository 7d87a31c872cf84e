// Package utils holds small operational helpers shared by the service layer.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowRunThreshold is the duration above which a simulation run is logged at warn level.
const SlowRunThreshold = 10 * time.Second

// RunTimer measures one simulation or estimation run.
type RunTimer struct {
	start     time.Time
	operation string
	log       zerolog.Logger
	now       func() time.Time
}

// NewRunTimer starts a timer for operation.
func NewRunTimer(operation string, log zerolog.Logger) *RunTimer {
	return &RunTimer{
		start:     time.Now(),
		operation: operation,
		log:       log,
		now:       time.Now,
	}
}

// Stop logs the elapsed time with the number of draws the run performed
// and returns the duration.
func (t *RunTimer) Stop(draws int) time.Duration {
	duration := t.now().Sub(t.start)

	event := t.log.Debug()
	if duration > SlowRunThreshold {
		event = t.log.Warn()
	}

	event.
		Str("operation", t.operation).
		Int("draws", draws).
		Dur("duration_ms", duration).
		Float64("draws_per_second", drawsPerSecond(draws, duration)).
		Msg("Run completed")

	return duration
}

func drawsPerSecond(draws int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(draws) / d.Seconds()
}
