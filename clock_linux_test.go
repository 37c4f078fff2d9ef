//go:build linux

package minithread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSignalClock tests ticking on SIGALRM.
func TestSignalClock(t *testing.T) {
	var n atomic.Int32
	stop, err := SignalClock{}.Start(2*time.Millisecond, func() { n.Add(1) })
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, 5*time.Second, time.Millisecond)
	stop()
	stop()
	v := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), v+1)
}

// TestScheduler_SignalClock tests sleeping on the interval timer.
func TestScheduler_SignalClock(t *testing.T) {
	s, err := New(WithClock(SignalClock{}), WithClockPeriod(2*time.Millisecond))
	require.NoError(t, err)
	var slept bool
	runTest(t, s, func() {
		assert.NoError(t, s.SleepWithTimeout(10*time.Millisecond))
		slept = true
	})
	assert.True(t, slept)
	assert.GreaterOrEqual(t, s.Stats().Ticks, uint64(5))
}
