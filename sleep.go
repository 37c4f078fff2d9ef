// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"time"
)

// SleepWithTimeout blocks the calling thread for at least d, rounded up to a
// whole number of clock periods. Other threads run in the meantime.
func (s *Scheduler) SleepWithTimeout(d time.Duration) error {
	if _, err := s.onThread(); err != nil {
		return err
	}
	sem := s.NewSemaphore(0)
	a, err := s.RegisterAlarm(d, wakeSleeper, sem)
	if err != nil {
		return err
	}
	if err := sem.P(); err != nil {
		_, _ = s.DeregisterAlarm(a)
		return err
	}
	if _, err := s.DeregisterAlarm(a); err != nil {
		return err
	}
	return sem.Destroy()
}

func wakeSleeper(arg any) {
	_ = arg.(*Semaphore).V()
}
