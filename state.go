// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"sync/atomic"
)

// ThreadState is the lifecycle state of a thread.
//
//	ThreadCreated → ThreadReady            [Start]
//	ThreadReady   → ThreadRunning          [dispatch]
//	ThreadRunning → ThreadReady            [Yield, preemption]
//	ThreadRunning → ThreadBlocked          [Semaphore.P, Stop]
//	ThreadRunning → ThreadZombie           [entry returned]
//	ThreadBlocked → ThreadReady            [Semaphore.V, Wake]
//
// Zombie threads are reclaimed by the kernel context, after which their
// handle is unknown.
type ThreadState uint8

const (
	ThreadCreated ThreadState = iota
	ThreadReady
	ThreadRunning
	ThreadBlocked
	ThreadZombie
)

func (s ThreadState) String() string {
	switch s {
	case ThreadCreated:
		return "Created"
	case ThreadReady:
		return "Ready"
	case ThreadRunning:
		return "Running"
	case ThreadBlocked:
		return "Blocked"
	case ThreadZombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// runState is the lifecycle of the scheduler itself.
//
//	stateAwake → stateRunning → stateTerminated
type runState uint32

const (
	stateAwake runState = iota
	stateRunning
	stateTerminated
)

type schedulerState struct {
	v atomic.Uint32
}

func (s *schedulerState) Load() runState {
	return runState(s.v.Load())
}

func (s *schedulerState) Store(state runState) {
	s.v.Store(uint32(state))
}

func (s *schedulerState) TryTransition(from, to runState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
