// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"time"
)

// Alarm is a callback scheduled to run, in interrupt context, at a clock
// tick. See Scheduler.RegisterAlarm.
//
// An alarm stays registered after it fires, until it is deregistered, and
// never fires more than once.
type Alarm struct {
	s          *Scheduler
	prev, next *Alarm
	fn         func(any)
	arg        any
	deadline   uint64
	executed   bool
	linked     bool
}

// Deadline returns the tick the alarm fires at. Must be called holding the
// CPU.
func (a *Alarm) Deadline() uint64 { return a.deadline }

// Executed returns true if the callback has been called. Must be called
// holding the CPU.
func (a *Alarm) Executed() bool { return a.executed }

// alarmList is a doubly linked list, sorted by deadline, with ties in
// registration order.
type alarmList struct {
	head, tail *Alarm
	len        int
	// pending is the number of linked alarms that have not fired
	pending int
}

// insert links a after every alarm with an equal or earlier deadline,
// searching from the tail, since new alarms tend to be the latest.
func (l *alarmList) insert(a *Alarm) {
	p := l.tail
	for p != nil && p.deadline > a.deadline {
		p = p.prev
	}
	a.prev = p
	if p == nil {
		a.next = l.head
		l.head = a
	} else {
		a.next = p.next
		p.next = a
	}
	if a.next == nil {
		l.tail = a
	} else {
		a.next.prev = a
	}
	a.linked = true
	l.len++
	if !a.executed {
		l.pending++
	}
}

func (l *alarmList) remove(a *Alarm) {
	if a.prev == nil {
		l.head = a.next
	} else {
		a.prev.next = a.next
	}
	if a.next == nil {
		l.tail = a.prev
	} else {
		a.next.prev = a.prev
	}
	a.prev, a.next = nil, nil
	a.linked = false
	l.len--
	if !a.executed {
		l.pending--
	}
}

// ticksFor converts a delay to a whole number of clock ticks, rounding up.
func (s *Scheduler) ticksFor(delay time.Duration) uint64 {
	if delay <= 0 {
		return 0
	}
	return uint64((delay + s.period - 1) / s.period)
}

// RegisterAlarm schedules fn(arg) to be called in interrupt context, once at
// least delay has elapsed, rounded up to a whole number of clock periods. The
// callback must not block. It may call Semaphore.V, Wake, and the alarm
// functions.
func (s *Scheduler) RegisterAlarm(delay time.Duration, fn func(any), arg any) (*Alarm, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if _, err := s.onCPU(); err != nil {
		return nil, err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	a := &Alarm{
		s:        s,
		fn:       fn,
		arg:      arg,
		deadline: s.ticks + s.ticksFor(delay),
	}
	s.alarms.insert(a)
	s.logger.Trace().
		Str("category", categoryAlarm).
		Uint64("scheduler", s.id).
		Uint64("deadline", a.deadline).
		Uint64("tick", s.ticks).
		Log("alarm registered")
	return a, nil
}

// DeregisterAlarm removes an alarm, returning true if it has already fired.
// Each alarm may only be deregistered once.
func (s *Scheduler) DeregisterAlarm(a *Alarm) (executed bool, err error) {
	if a == nil {
		return false, ErrNilAlarm
	}
	if _, err := s.onCPU(); err != nil {
		return false, err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	if a.s != s || !a.linked {
		s.logUsage(categoryAlarm, ErrAlarmDeregistered)
		return a.executed, ErrAlarmDeregistered
	}
	s.alarms.remove(a)
	return a.executed, nil
}

// fireAlarms calls every due alarm that has not fired. Callbacks may modify
// the list, so the due alarms are collected first.
func (s *Scheduler) fireAlarms() {
	due := s.alarmBuf[:0]
	for a := s.alarms.head; a != nil && a.deadline <= s.ticks; a = a.next {
		if !a.executed {
			due = append(due, a)
		}
	}
	for i, a := range due {
		due[i] = nil
		if a.executed || !a.linked {
			continue
		}
		a.executed = true
		s.alarms.pending--
		s.logger.Trace().
			Str("category", categoryAlarm).
			Uint64("scheduler", s.id).
			Uint64("deadline", a.deadline).
			Uint64("tick", s.ticks).
			Log("alarm fired")
		s.handle(categoryAlarm, func() { a.fn(a.arg) })
	}
	s.alarmBuf = due[:0]
}
