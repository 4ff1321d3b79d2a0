package websocket

import (
	"math/rand"
	"sync"
	"time"
)

// jitterFraction is the maximum extra delay added to each backoff step.
const jitterFraction = 0.2

// Backoff produces exponentially growing reconnect delays with jitter.
type Backoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64

	mu      sync.Mutex
	current time.Duration
}

// NewBackoff creates a backoff starting at initial and capped at max.
// A multiplier below 1 is treated as 1.
func NewBackoff(initial time.Duration, max time.Duration, multiplier float64) *Backoff {
	if multiplier < 1 {
		multiplier = 1
	}
	if max < initial {
		max = initial
	}

	return &Backoff{
		initial:    initial,
		max:        max,
		multiplier: multiplier,
		current:    initial,
	}
}

// Next returns the delay for this attempt and grows the delay for the next.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := time.Duration(float64(b.current) * (1 + rand.Float64()*jitterFraction))

	grown := time.Duration(float64(b.current) * b.multiplier)
	if grown > b.max {
		grown = b.max
	}
	b.current = grown

	return delay
}

// Reset returns the delay to its initial value.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
}
