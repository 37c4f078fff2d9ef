package machine

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwitch_PingPong(t *testing.T) {
	kernel := Bind()
	require.True(t, kernel.Owned())

	var trace []int
	var worker *Context
	worker = Spawn(
		func() {
			require.True(t, worker.Owned())
			for i := 0; i < 3; i++ {
				trace = append(trace, i)
				Switch(worker, kernel)
			}
		},
		func() {
			trace = append(trace, -1)
			Exit(kernel)
		},
	)
	assert.False(t, worker.Owned())

	for i := 0; i < 4; i++ {
		Switch(kernel, worker)
	}
	assert.Equal(t, []int{0, 1, 2, -1}, trace)
}

func TestContext_KillParked(t *testing.T) {
	before := runtime.NumGoroutine()

	kernel := Bind()
	var deferred atomic.Int32
	var finals atomic.Int32

	var parked *Context
	parked = Spawn(
		func() {
			defer deferred.Add(1)
			Switch(parked, kernel)
			t.Error(`should not resume`)
		},
		func() { finals.Add(1) },
	)
	Switch(kernel, parked)

	notStarted := Spawn(
		func() { t.Error(`should not run`) },
		func() { t.Error(`should not run`) },
	)

	parked.Kill()
	notStarted.Kill()
	notStarted.Kill()

	deadline := time.Now().Add(5 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
	assert.Equal(t, int32(1), deferred.Load())
	assert.Equal(t, int32(0), finals.Load())
}

func TestSwitch_TargetAlreadyRunnable(t *testing.T) {
	c := newContext()
	handoff(c)
	assert.Panics(t, func() { handoff(c) })
}

func TestTestAndSet(t *testing.T) {
	var v atomic.Uint32
	assert.Equal(t, uint32(0), TestAndSet(&v))
	assert.Equal(t, uint32(1), TestAndSet(&v))
	var l SpinLock
	assert.False(t, l.Locked())
	l.Lock()
	assert.True(t, l.Locked())
	l.Unlock()
	assert.False(t, l.Locked())
}
