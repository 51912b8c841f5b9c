package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	fail bool

	wantPrimary bool
	wantOpened  bool
	wantClosed  bool
}

func fail(primary, opened bool) step { return step{fail: true, wantPrimary: primary, wantOpened: opened} }
func ok(primary, closed bool) step   { return step{wantPrimary: primary, wantClosed: closed} }

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		steps    []step
		wantOpen bool
	}{
		{
			name:     "opens on the threshold failure",
			opts:     []Option{WithFailureThreshold(3)},
			steps:    []step{fail(true, false), fail(true, false), fail(false, true)},
			wantOpen: true,
		},
		{
			name:     "success clears the failure streak",
			opts:     []Option{WithFailureThreshold(3)},
			steps:    []step{fail(true, false), fail(true, false), ok(true, false), fail(true, false), fail(true, false)},
			wantOpen: false,
		},
		{
			name:     "closes after success threshold",
			opts:     []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps:    []step{fail(false, true), ok(false, false), ok(true, true)},
			wantOpen: false,
		},
		{
			name: "failure while open restarts the success streak",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			steps: []step{
				fail(false, true),
				ok(false, false), ok(false, false),
				fail(false, false),
				ok(false, false), ok(false, false), ok(true, true),
			},
			wantOpen: false,
		},
		{
			name:     "repeated failures while open report no transition",
			opts:     []Option{WithFailureThreshold(1)},
			steps:    []step{fail(false, true), fail(false, false), fail(false, false)},
			wantOpen: true,
		},
		{
			name:     "defaults need five failures",
			steps:    []step{fail(true, false), fail(true, false), fail(true, false), fail(true, false), fail(false, true)},
			wantOpen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-relay", tt.opts...)
			for i, s := range tt.steps {
				if s.fail {
					useFallback, change := b.RecordFailure()
					assert.Equal(t, !s.wantPrimary, useFallback, "step %d fallback", i)
					assert.Equal(t, s.wantOpened, change.Opened, "step %d opened", i)
					continue
				}
				usePrimary, change := b.RecordSuccess()
				assert.Equal(t, s.wantPrimary, usePrimary, "step %d primary", i)
				assert.Equal(t, s.wantClosed, change.Closed, "step %d closed", i)
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReset(t *testing.T) {
	b := New("audit-relay", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "audit-relay", b.Name())
}

func TestBreakerIgnoresNonPositiveThresholds(t *testing.T) {
	b := New("audit-relay", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.Equal(t, "open", b.State().String())
}
