// Package clock supplies the logical time used to order show schedules and
// sales cut-offs.
package clock

import (
	"sync"
	"time"

	id "boxoffice/pkg/domain"
)

// Clock returns the current logical time.
type Clock interface {
	Now() id.Timestamp
}

// Monotonic derives logical time from a wall clock in whole seconds and never
// returns a value lower than one it already returned, even if the wall clock
// steps backwards.
type Monotonic struct {
	mu     sync.Mutex
	last   id.Timestamp
	source func() time.Time
}

type Option func(*Monotonic)

// WithSource replaces the wall clock.
func WithSource(source func() time.Time) Option {
	return func(m *Monotonic) {
		m.source = source
	}
}

func NewMonotonic(opts ...Option) *Monotonic {
	m := &Monotonic{source: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monotonic) Now() id.Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	var now id.Timestamp
	if secs := m.source().Unix(); secs > 0 {
		now = id.Timestamp(secs)
	}
	if now < m.last {
		return m.last
	}
	m.last = now
	return now
}

// Fixed always returns the same logical time.
type Fixed id.Timestamp

func (f Fixed) Now() id.Timestamp { return id.Timestamp(f) }
