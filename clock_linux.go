// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package minithread

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SignalClock ticks on SIGALRM, delivered by the process-wide ITIMER_REAL
// interval timer. Only one may be started per process, and it conflicts with
// anything else using the timer.
type SignalClock struct{}

// Start implements Clock.
func (SignalClock) Start(period time.Duration, tick func()) (func(), error) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGALRM)
	tv := unix.NsecToTimeval(period.Nanoseconds())
	if _, err := unix.Setitimer(unix.ItimerReal, unix.Itimerval{Interval: tv, Value: tv}); err != nil {
		signal.Stop(ch)
		return nil, fmt.Errorf("minithread: setitimer: %w", err)
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ch:
				tick()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			_, _ = unix.Setitimer(unix.ItimerReal, unix.Itimerval{})
			signal.Stop(ch)
			close(done)
			wg.Wait()
		})
	}, nil
}
