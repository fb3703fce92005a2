package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	t.Parallel()

	c := RealClock{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	assert.False(t, got.Before(before), "clock.Now() should not return time before actual time.Now()")
	assert.False(t, got.After(after), "clock.Now() should not return time after actual time.Now()")
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	c := NewFixedClock(fixed)

	assert.Equal(t, fixed, c.Now())
	assert.Equal(t, fixed, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, fixed.Add(90*time.Second), c.Now())
}
