// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"io"
	"runtime/debug"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Log categories, set as the "category" field of every entry.
const (
	categorySched     = "sched"
	categoryThread    = "thread"
	categoryAlarm     = "alarm"
	categorySemaphore = "semaphore"
	categoryClock     = "clock"
)

// NewLogger returns a JSON logger writing to w, suitable for WithLogger.
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

func (s *Scheduler) logThread(b *logiface.Builder[logiface.Event], t *thread) *logiface.Builder[logiface.Event] {
	return b.
		Str("category", categoryThread).
		Uint64("scheduler", s.id).
		Int64("thread", int64(t.id)).
		Int("level", t.runLevel)
}

// logPanic reports a panic recovered from user code, running on the CPU.
func (s *Scheduler) logPanic(category string, id ThreadID, r any) {
	b := s.logger.Crit()
	if !b.Enabled() {
		return
	}
	b.Str("category", category).
		Uint64("scheduler", s.id).
		Int64("thread", int64(id)).
		Err(PanicError{Value: r}).
		Str("stack", string(debug.Stack())).
		Log("recovered panic")
}

// logUsage reports misuse that was rejected with an error.
func (s *Scheduler) logUsage(category string, err error) {
	s.logger.Warning().
		Str("category", category).
		Uint64("scheduler", s.id).
		Err(err).
		Log("rejected operation")
}
