package queue

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the pause after consecutive store failures.
// Implementations must be safe for concurrent use.
type Backoff interface {
	// Next returns the pause before the given attempt; attempt starts at 1.
	Next(attempt int) time.Duration
}

// ExponentialBackoff doubles (by Multiplier) the pause on every failed
// attempt, capped at Max, with optional ±Jitter.
type ExponentialBackoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Next implements Backoff: min(Initial * Multiplier^(attempt-1) * (1±Jitter), Max).
func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := b.Initial
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	maxPause := b.Max
	if maxPause <= 0 {
		maxPause = 5 * time.Second
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	pause := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if b.Jitter > 0 {
		pause *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	if pause > float64(maxPause) {
		pause = float64(maxPause)
	}
	return time.Duration(pause)
}

// FixedBackoff always pauses for the same interval.
type FixedBackoff time.Duration

// Next implements Backoff.
func (f FixedBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(f)
}

func defaultBackoff(idle time.Duration) Backoff {
	return ExponentialBackoff{
		Initial:    idle,
		Max:        5 * time.Second,
		Multiplier: 2,
		Jitter:     0.1,
	}
}
