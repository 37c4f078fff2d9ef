package minithread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManualClock tests ticking on demand.
func TestManualClock(t *testing.T) {
	clk := NewManualClock()
	clk.Tick() // not started

	var n atomic.Int32
	stop, err := clk.Start(time.Second, func() { n.Add(1) })
	require.NoError(t, err)
	_, err = clk.Start(time.Second, func() {})
	assert.Error(t, err)

	clk.Tick()
	clk.Advance(4)
	assert.Equal(t, int32(5), n.Load())

	stop()
	clk.Advance(2)
	assert.Equal(t, int32(5), n.Load())

	// may be reused once stopped
	stop, err = clk.Start(time.Second, func() {})
	require.NoError(t, err)
	stop()
}

// TestTickerClock tests that ticks are delivered until stopped.
func TestTickerClock(t *testing.T) {
	var n atomic.Int32
	stop, err := TickerClock{}.Start(time.Millisecond, func() { n.Add(1) })
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, 5*time.Second, time.Millisecond)
	stop()
	stop()
	v := n.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, v, n.Load())
}
