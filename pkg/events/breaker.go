package events

import (
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("event publisher circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// Breaker stops hammering the broker after repeated publish failures within
// a sliding window, letting one probe through after the cooldown.
type Breaker struct {
	maxFailures int
	window      time.Duration
	cooldown    time.Duration

	failures    []time.Time
	lastFailure time.Time
	state       State
	mu          sync.Mutex
}

func NewBreaker(maxFailures int, cooldown, window time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		window:      window,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
	}
}

func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) < b.cooldown {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.failures = b.failures[:0]
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if err != nil {
		b.lastFailure = now
		b.failures = append(b.failures, now)
		b.dropExpired(now)
		if len(b.failures) > b.maxFailures || b.state == StateHalfOpen {
			b.state = StateOpen
		}
		return err
	}

	b.dropExpired(now)
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = b.failures[:0]
	}
	return nil
}

func (b *Breaker) dropExpired(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept
}

func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
