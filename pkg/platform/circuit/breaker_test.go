package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome bool

const (
	fail outcome = false
	ok   outcome = true
)

func replay(b *Breaker, outcomes ...outcome) {
	for _, o := range outcomes {
		if o {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestBreakerStateAfterOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes []outcome
		open     bool
	}{
		{"fresh breaker is closed", nil, nil, false},
		{"below threshold stays closed", []Option{WithFailureThreshold(3)}, []outcome{fail, fail}, false},
		{"threshold opens", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, fail}, true},
		{"success resets the failure run", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, ok, fail, fail}, false},
		{"one success is not enough to close", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok}, true},
		{"success run closes", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok, ok}, false},
		{"failure while open restarts the success run", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, []outcome{fail, ok, fail, ok}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("catalog-cache", tt.opts...)
			replay(b, tt.outcomes...)
			assert.Equal(t, tt.open, b.IsOpen())
		})
	}
}

func TestBreakerReportsTransitionsOnce(t *testing.T) {
	b := New("catalog-cache", WithFailureThreshold(2))

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.False(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("catalog-cache", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "catalog-cache", b.Name())
}

func TestBreakerAllowProbesOncePerCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := New("catalog-cache", WithFailureThreshold(1), WithCooldown(time.Minute))
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.RecordFailure()

	assert.False(t, b.Allow(), "open breaker blocks until cooldown")
	now = now.Add(time.Minute)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow())
}
