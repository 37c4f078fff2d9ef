// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"github.com/joeycumines/go-minithread/internal/machine"
)

// ThreadID is the handle of a thread. Handles are never reused within a
// scheduler. The zero value identifies the kernel context.
type ThreadID int64

// KernelID is the handle of the kernel context, the goroutine running the
// dispatch loop.
const KernelID ThreadID = 0

// ThreadInfo is a point-in-time copy of a thread control record.
type ThreadInfo struct {
	ID ThreadID
	// State is the lifecycle state.
	State ThreadState
	// Level is the feedback queue level the thread runs, or is queued, at.
	Level int
	// QuantaLeft is the number of clock ticks remaining in the quantum.
	QuantaLeft int
}

// thread is a thread control record. Queues only ever hold the id.
type thread struct {
	id         ThreadID
	state      ThreadState
	runLevel   int
	quantaLeft int
	ctx        *machine.Context
	entry      func(any)
	arg        any
	// sem is set while the thread is blocked in Semaphore.P.
	sem *Semaphore
}

func (t *thread) info() ThreadInfo {
	return ThreadInfo{
		ID:         t.id,
		State:      t.state,
		Level:      t.runLevel,
		QuantaLeft: t.quantaLeft,
	}
}

// newThread allocates a record and its fiber. Must be called with
// interrupts disabled.
func (s *Scheduler) newThread(entry func(any), arg any) (*thread, error) {
	if entry == nil {
		s.logUsage(categoryThread, ErrNilEntry)
		return nil, ErrNilEntry
	}
	if s.maxThreads > 0 && len(s.threads) >= s.maxThreads {
		s.logUsage(categoryThread, ErrTooManyThreads)
		return nil, ErrTooManyThreads
	}
	s.nextID++
	t := &thread{
		id:         s.nextID,
		state:      ThreadCreated,
		quantaLeft: s.ready.Quantum(0),
		entry:      entry,
		arg:        arg,
	}
	t.ctx = machine.Spawn(func() { s.trampoline(t) }, func() { s.finalize(t) })
	s.threads[t.id] = t
	s.logThread(s.logger.Debug(), t).Log("thread created")
	return t, nil
}

// trampoline is the first code a fiber runs, on its first dispatch.
func (s *Scheduler) trampoline(t *thread) {
	s.cpu.SetLevel(machine.Enabled)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*InvariantError); ok {
				panic(r)
			}
			s.logPanic(categoryThread, t.id, r)
		}
	}()
	t.entry(t.arg)
}

// finalize runs after the entry func returns, and never returns to it: the
// record becomes a zombie, and the fiber exits, handing the CPU to the
// kernel context.
func (s *Scheduler) finalize(t *thread) {
	s.cpu.Disable()
	if s.current.Load() != t {
		panic(invariant(`thread %d exited while not current`, t.id))
	}
	t.state = ThreadZombie
	s.zombies.PushBack(t.id)
	s.live--
	s.logThread(s.logger.Debug(), t).Log("thread exited")
	s.current.Store(s.kernel)
	machine.Exit(s.kernel.ctx)
}

// reclaim drains the zombie queue, releasing every record. Must be called
// from the kernel context, with interrupts disabled.
func (s *Scheduler) reclaim() {
	for {
		id, ok := s.zombies.PopFront()
		if !ok {
			return
		}
		t, ok := s.threads[id]
		if !ok {
			panic(invariant(`reclaim of unknown thread %d`, id))
		}
		if t.state != ThreadZombie {
			panic(invariant(`reclaim of thread %d in state %s`, id, t.state))
		}
		delete(s.threads, id)
		t.entry = nil
		t.arg = nil
		s.reclaimed++
		s.logger.Trace().
			Str("category", categoryThread).
			Uint64("scheduler", s.id).
			Int64("thread", int64(id)).
			Log("thread reclaimed")
	}
}
