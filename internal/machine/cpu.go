// Package machine provides the host services the scheduler is built on: a
// single logical CPU with an interrupt level and latched interrupt lines,
// goroutine-backed execution contexts with an explicit switch, and an atomic
// test-and-set lock.
//
// Only the goroutine currently holding the CPU may touch the interrupt level,
// or call Switch. Raise and Post are the only methods safe to call from any
// goroutine.
package machine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Level is the interrupt level of the CPU.
type Level int32

const (
	// Disabled means interrupts are latched, but not delivered.
	Disabled Level = iota
	// Enabled means pending interrupts are delivered at the next delivery
	// point.
	Enabled
)

func (x Level) String() string {
	switch x {
	case Disabled:
		return `disabled`
	case Enabled:
		return `enabled`
	default:
		return `unknown`
	}
}

// CPU models one logical processor. There are two interrupt lines: a clock
// line, where raised ticks are counted, and a device line, where posted
// handlers are queued.
//
// Interrupts start disabled.
type CPU struct {
	clock   func()
	device  func(fn func())
	signal  chan struct{}
	pending atomic.Uint64
	halted  atomic.Bool
	postMu  sync.Mutex
	posted  []func()
	level   Level
}

// NewCPU initializes a CPU, that will call clock for every raised tick, and
// device for every posted handler, in interrupt context.
func NewCPU(clock func(), device func(fn func())) *CPU {
	if clock == nil || device == nil {
		panic(`machine: nil interrupt handler`)
	}
	return &CPU{
		clock:  clock,
		device: device,
		signal: make(chan struct{}, 1),
		level:  Disabled,
	}
}

// Raise latches a clock interrupt. Safe to call from any goroutine.
func (x *CPU) Raise() {
	x.pending.Add(1)
	x.notify()
}

// Post latches a device interrupt, which will call fn. Safe to call from any
// goroutine.
func (x *CPU) Post(fn func()) {
	x.postMu.Lock()
	x.posted = append(x.posted, fn)
	x.postMu.Unlock()
	x.notify()
}

func (x *CPU) notify() {
	select {
	case x.signal <- struct{}{}:
	default:
	}
}

// Pending returns the number of latched clock interrupts.
func (x *CPU) Pending() uint64 { return x.pending.Load() }

// Level returns the current interrupt level.
func (x *CPU) Level() Level { return x.level }

// SetLevel sets the interrupt level, returning the previous level. Setting
// the level to Enabled delivers any latched interrupts, before returning.
func (x *CPU) SetLevel(level Level) (old Level) {
	if x.halted.Load() {
		return Disabled
	}
	old = x.level
	x.level = level
	if level == Enabled {
		x.deliver()
	}
	return old
}

// Disable is shorthand for SetLevel(Disabled).
// Use it with Restore, e.g. `defer cpu.Restore(cpu.Disable())`.
func (x *CPU) Disable() Level { return x.SetLevel(Disabled) }

// Restore sets the interrupt level back to a value returned by Disable.
func (x *CPU) Restore(old Level) { x.SetLevel(old) }

// Halt disables interrupts permanently. Afterwards, the level may be changed
// from any goroutine, without effect, e.g. by parked contexts unwinding after
// Kill.
func (x *CPU) Halt() {
	x.level = Disabled
	x.halted.Store(true)
}

// Halted reports whether Halt has been called.
func (x *CPU) Halted() bool { return x.halted.Load() }

// Poll is an interrupt delivery point.
func (x *CPU) Poll() {
	if !x.halted.Load() && x.level == Enabled {
		x.deliver()
	}
}

// Wait blocks until an interrupt may have been latched, or ctx is done. It
// does not deliver anything, call Poll after it returns.
func (x *CPU) Wait(ctx context.Context) error {
	select {
	case <-x.signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver runs handlers, in interrupt context (level Disabled), until nothing
// is latched. A handler may switch away, in which case the remainder of the
// delivery happens when (if) this context is resumed. The level is set back
// to Enabled after each handler returns, as it was when the interrupt was
// taken.
func (x *CPU) deliver() {
	for x.level == Enabled {
		if fn := x.nextPosted(); fn != nil {
			x.level = Disabled
			x.device(fn)
			x.level = Enabled
			continue
		}
		n := x.pending.Load()
		if n == 0 {
			return
		}
		if !x.pending.CompareAndSwap(n, n-1) {
			continue
		}
		x.level = Disabled
		x.clock()
		x.level = Enabled
	}
}

func (x *CPU) nextPosted() (fn func()) {
	x.postMu.Lock()
	if len(x.posted) != 0 {
		fn = x.posted[0]
		x.posted[0] = nil
		x.posted = x.posted[1:]
	}
	x.postMu.Unlock()
	return fn
}
