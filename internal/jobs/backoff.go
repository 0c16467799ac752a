package jobs

import (
	"math"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt. Strategies are
// stateless and safe for concurrent use.
type BackoffStrategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	Delay(attempt int) time.Duration
}

// ConstantBackoff always returns the same delay regardless of attempt
// number. This is the default strategy.
type ConstantBackoff struct {
	Interval time.Duration
}

func (c ConstantBackoff) Delay(_ int) time.Duration {
	return c.Interval
}

// ExponentialBackoff doubles the delay each attempt:
// Delay = min(Initial * 2^(attempt-1), Max).
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// BackoffFromConfig maps the configured strategy name onto an
// implementation, defaulting to a constant delay on unknown input.
func BackoffFromConfig(kind string, delay time.Duration) BackoffStrategy {
	if kind == "exponential" {
		return ExponentialBackoff{Initial: delay, Max: 10 * delay}
	}
	return ConstantBackoff{Interval: delay}
}
