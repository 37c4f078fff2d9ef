// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"fmt"
	"io"
	"time"

	minithread "github.com/joeycumines/go-minithread"
)

// alarmsScenario has three threads sleeping for staggered durations.
func alarmsScenario(s *minithread.Scheduler, cfg *config, out io.Writer) func(any) {
	unit := cfg.sleepUnit
	sleep := func(n int) {
		if err := s.SleepWithTimeout(unit * time.Duration(n)); err != nil {
			panic(err)
		}
	}
	thread3 := func(any) {
		_, _ = fmt.Fprintln(out, `thread 3 runs and finishes`)
	}
	thread2 := func(any) {
		if _, err := s.Fork(thread3, nil); err != nil {
			panic(err)
		}
		_, _ = fmt.Fprintln(out, `thread 2 starts`)
		sleep(2)
		_, _ = fmt.Fprintln(out, `thread 2 woke up and finishes`)
	}
	return func(any) {
		if _, err := s.Fork(thread2, nil); err != nil {
			panic(err)
		}
		_, _ = fmt.Fprintln(out, `thread 1 starts`)
		sleep(1)
		_, _ = fmt.Fprintln(out, `thread 1 woke up, and sleeps again`)
		sleep(3)
		_, _ = fmt.Fprintln(out, `thread 1 woke up and finishes`)
	}
}
