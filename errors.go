// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrAlreadyRunning is returned when Run is called on a scheduler that is
	// already running.
	ErrAlreadyRunning = errors.New("minithread: scheduler is already running")

	// ErrTerminated is returned when operations are attempted on a scheduler
	// that has finished running.
	ErrTerminated = errors.New("minithread: scheduler has been terminated")

	// ErrNotOnCPU is returned when a runtime operation is called from a
	// goroutine that does not currently hold the logical CPU, i.e. not from a
	// thread (or interrupt handler) of this scheduler.
	ErrNotOnCPU = errors.New("minithread: not called from the running thread")

	// ErrKernelContext is returned when an operation that requires a thread
	// is attempted from the kernel context.
	ErrKernelContext = errors.New("minithread: operation requires a thread")

	// ErrInterruptContext is returned when an operation that may block is
	// attempted from an interrupt handler, e.g. an alarm callback.
	ErrInterruptContext = errors.New("minithread: operation may block, called from interrupt context")

	// ErrNilEntry is returned when a thread is created without an entry func.
	ErrNilEntry = errors.New("minithread: nil entry func")

	// ErrTooManyThreads is returned when a thread could not be allocated,
	// because the limit configured by WithMaxThreads has been reached.
	ErrTooManyThreads = errors.New("minithread: thread allocation failed")

	// ErrUnknownThread is returned for a thread handle that does not exist,
	// or has been reclaimed.
	ErrUnknownThread = errors.New("minithread: unknown thread")

	// ErrNotBlocked is returned by Wake for a thread that is not blocked.
	ErrNotBlocked = errors.New("minithread: thread is not blocked")

	// ErrNotCreated is returned by Start for a thread that was already
	// started.
	ErrNotCreated = errors.New("minithread: thread has already been started")

	// ErrNilSemaphore is returned by semaphore methods called on nil.
	ErrNilSemaphore = errors.New("minithread: nil semaphore")

	// ErrSemaphoreInUse is returned when destroying or re-initializing a
	// semaphore that has waiting threads.
	ErrSemaphoreInUse = errors.New("minithread: semaphore has waiting threads")

	// ErrSemaphoreDestroyed is returned for operations on a destroyed
	// semaphore.
	ErrSemaphoreDestroyed = errors.New("minithread: semaphore has been destroyed")

	// ErrNilCallback is returned when registering an alarm without a
	// callback.
	ErrNilCallback = errors.New("minithread: nil alarm callback")

	// ErrNilAlarm is returned when deregistering a nil alarm.
	ErrNilAlarm = errors.New("minithread: nil alarm")

	// ErrAlarmDeregistered is returned when deregistering an alarm that has
	// already been deregistered.
	ErrAlarmDeregistered = errors.New("minithread: alarm has already been deregistered")

	// ErrClockUnsupported is returned by clocks that are not available on the
	// current platform.
	ErrClockUnsupported = errors.New("minithread: clock is not supported on this platform")
)

// InvariantError is the panic value used when the scheduler detects that its
// own bookkeeping is corrupt, e.g. dispatching from an empty ready queue.
// These are programming errors, and are never recovered by the scheduler.
type InvariantError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Cause != nil {
		return "minithread: invariant violated: " + e.Message + ": " + e.Cause.Error()
	}
	return "minithread: invariant violated: " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *InvariantError) Unwrap() error {
	return e.Cause
}

func invariant(format string, args ...any) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// PanicError wraps a value recovered from a panicking thread entry func, or
// interrupt handler. It is reported via the logger.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("minithread: recovered panic: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
