// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"github.com/joeycumines/go-minithread/internal/machine"
	"github.com/joeycumines/go-minithread/internal/mlfq"
)

// Semaphore is a counting semaphore, for threads of a single Scheduler.
// Blocked threads are woken in the order they called P.
//
// While the count is negative, its magnitude is the number of waiting
// threads.
type Semaphore struct {
	s         *Scheduler
	lock      machine.SpinLock
	waiters   *mlfq.FIFO[ThreadID]
	count     int
	destroyed bool
}

// NewSemaphore returns a semaphore with the given initial count.
func (s *Scheduler) NewSemaphore(count int) *Semaphore {
	return &Semaphore{
		s:       s,
		waiters: mlfq.NewFIFO[ThreadID](4),
		count:   count,
	}
}

// Initialize resets the count. It fails if any threads are waiting.
func (x *Semaphore) Initialize(count int) error {
	if x == nil {
		return ErrNilSemaphore
	}
	if _, err := x.s.onCPU(); err != nil {
		return err
	}
	defer x.s.cpu.Restore(x.s.cpu.Disable())
	x.lock.Lock()
	defer x.lock.Unlock()
	if x.destroyed {
		return ErrSemaphoreDestroyed
	}
	if x.waiters.Len() != 0 {
		return ErrSemaphoreInUse
	}
	x.count = count
	return nil
}

// P decrements the count, blocking the calling thread if it becomes
// negative, until a matching V. It may not be called from an interrupt
// handler.
func (x *Semaphore) P() error {
	if x == nil {
		return ErrNilSemaphore
	}
	t, err := x.s.onThread()
	if err != nil {
		return err
	}
	defer x.s.cpu.Restore(x.s.cpu.Disable())
	x.lock.Lock()
	if x.destroyed {
		x.lock.Unlock()
		return ErrSemaphoreDestroyed
	}
	x.count--
	if x.count >= 0 {
		x.lock.Unlock()
		return nil
	}
	x.waiters.PushBack(t.id)
	t.state = ThreadBlocked
	t.sem = x
	x.lock.Unlock()
	x.s.logger.Trace().
		Str("category", categorySemaphore).
		Uint64("scheduler", x.s.id).
		Int64("thread", int64(t.id)).
		Int("count", x.count).
		Log("thread blocked")
	x.s.toKernel(t)
	return nil
}

// V increments the count, waking the longest waiting thread, if any. It does
// not switch, and may be called from an interrupt handler.
func (x *Semaphore) V() error {
	if x == nil {
		return ErrNilSemaphore
	}
	if _, err := x.s.onCPU(); err != nil {
		return err
	}
	defer x.s.cpu.Restore(x.s.cpu.Disable())
	x.lock.Lock()
	defer x.lock.Unlock()
	if x.destroyed {
		return ErrSemaphoreDestroyed
	}
	x.count++
	if x.count > 0 {
		return nil
	}
	id, ok := x.waiters.PopFront()
	if !ok {
		panic(invariant(`semaphore count %d with no waiters`, x.count))
	}
	t := x.s.threads[id]
	if t == nil || t.state != ThreadBlocked || t.sem != x {
		panic(invariant(`semaphore waiter %d is not blocked on it`, id))
	}
	t.sem = nil
	x.s.wake(t)
	return nil
}

// Destroy releases the semaphore. It fails if any threads are waiting.
func (x *Semaphore) Destroy() error {
	if x == nil {
		return ErrNilSemaphore
	}
	if _, err := x.s.onCPU(); err != nil {
		return err
	}
	defer x.s.cpu.Restore(x.s.cpu.Disable())
	x.lock.Lock()
	defer x.lock.Unlock()
	if x.destroyed {
		return ErrSemaphoreDestroyed
	}
	if n := x.waiters.Len(); n != 0 {
		x.s.logger.Warning().
			Str("category", categorySemaphore).
			Uint64("scheduler", x.s.id).
			Int("waiters", n).
			Err(ErrSemaphoreInUse).
			Log("destroy of semaphore with waiting threads")
		return ErrSemaphoreInUse
	}
	x.destroyed = true
	return nil
}

// Count returns the current count. Must be called holding the CPU.
func (x *Semaphore) Count() int {
	if x == nil {
		return 0
	}
	return x.count
}
