package machine

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Context is a saved execution context, backed by a goroutine that only runs
// while it holds the CPU. Control is transferred with Switch, which hands the
// CPU to another context, then parks the caller until it is handed back.
type Context struct {
	resume   chan struct{}
	kill     chan struct{}
	killOnce sync.Once
	gid      atomic.Uint64
}

// Bind returns a context for the calling goroutine, e.g. the kernel context,
// which is the goroutine that runs the dispatch loop.
func Bind() *Context {
	c := newContext()
	c.gid.Store(goroutineID())
	return c
}

// Spawn allocates a new context. The backing goroutine starts immediately,
// but blocks until the context is first switched to, at which point it calls
// entry, then final. The final func must transfer control elsewhere, see
// Exit, since the goroutine ends once it returns.
//
// A context that is killed before it is first switched to never calls
// either func.
func Spawn(entry, final func()) *Context {
	if entry == nil || final == nil {
		panic(`machine: spawn: nil func`)
	}
	c := newContext()
	started := make(chan struct{})
	go func() {
		c.gid.Store(goroutineID())
		close(started)
		select {
		case <-c.resume:
		case <-c.kill:
			return
		}
		entry()
		final()
	}()
	<-started
	return c
}

func newContext() *Context {
	return &Context{
		resume: make(chan struct{}, 1),
		kill:   make(chan struct{}),
	}
}

// Owned returns true if the calling goroutine is the one backing the context.
func (x *Context) Owned() bool {
	return x != nil && x.gid.Load() == goroutineID()
}

// Kill releases the backing goroutine of a context that is parked (never
// started, or switched away from). It must not be called on the context that
// holds the CPU. Parked goroutines exit via runtime.Goexit, running deferred
// calls, but not the final func.
func (x *Context) Kill() {
	x.killOnce.Do(func() { close(x.kill) })
}

// Switch transfers the CPU from the calling context, from, to another context,
// to. It returns when from is switched back to.
func Switch(from, to *Context) {
	handoff(to)
	select {
	case <-from.resume:
	case <-from.kill:
		runtime.Goexit()
	}
}

// Exit transfers the CPU to the context to, without parking the caller. The
// calling goroutine must not touch any shared state after calling Exit.
func Exit(to *Context) {
	handoff(to)
}

func handoff(to *Context) {
	select {
	case to.resume <- struct{}{}:
	default:
		panic(`machine: switch: target context is already runnable`)
	}
}

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
