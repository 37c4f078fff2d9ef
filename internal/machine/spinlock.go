package machine

import (
	"runtime"
	"sync/atomic"
)

// TestAndSet atomically sets v to 1, returning the previous value.
func TestAndSet(v *atomic.Uint32) uint32 {
	return v.Swap(1)
}

// SpinLock is a busy-wait lock built on TestAndSet. It is only appropriate
// because there is one logical CPU, and it is only held with interrupts
// disabled, so it is never actually contended. A multi-core port must replace
// it with a real mutex.
type SpinLock struct {
	v atomic.Uint32
}

func (x *SpinLock) Lock() {
	for TestAndSet(&x.v) == 1 {
		runtime.Gosched()
	}
}

func (x *SpinLock) Unlock() {
	x.v.Store(0)
}

// Locked reports whether the lock is currently held.
func (x *SpinLock) Locked() bool {
	return x.v.Load() == 1
}
