package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreaker(enabled bool) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker("test", enabled, 3, time.Minute, 30*time.Second, &logger.EmptyLogger{})
	cb.SetClock(c.now)
	return cb, c
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("trips at threshold", func(t *testing.T) {
		cb, _ := newBreaker(true)
		assert.False(t, cb.RecordFailure())
		assert.False(t, cb.RecordFailure())
		assert.False(t, cb.IsOpen())
		assert.True(t, cb.RecordFailure())
		assert.True(t, cb.IsOpen())
		assert.True(t, cb.GetState().Open)
	})

	t.Run("failures outside the window do not accumulate", func(t *testing.T) {
		cb, c := newBreaker(true)
		cb.RecordFailure()
		cb.RecordFailure()
		c.advance(2 * time.Minute)
		assert.False(t, cb.RecordFailure())
		assert.Equal(t, 1, cb.GetState().FailureCount)
	})

	t.Run("half opens after reset timeout", func(t *testing.T) {
		cb, c := newBreaker(true)
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		c.advance(10 * time.Second)
		assert.True(t, cb.IsOpen())
		c.advance(21 * time.Second)
		assert.False(t, cb.IsOpen())
		assert.Equal(t, 0, cb.GetState().FailureCount)
	})

	t.Run("success clears failures", func(t *testing.T) {
		cb, _ := newBreaker(true)
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		assert.False(t, cb.RecordFailure())
	})

	t.Run("disabled never opens", func(t *testing.T) {
		cb, _ := newBreaker(false)
		for i := 0; i < 10; i++ {
			assert.False(t, cb.RecordFailure())
		}
		assert.False(t, cb.IsOpen())
	})

	t.Run("manual reset", func(t *testing.T) {
		cb, _ := newBreaker(true)
		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		cb.Reset()
		assert.False(t, cb.IsOpen())
	})
}
