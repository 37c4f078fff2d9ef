// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package minithread implements user-level threads, multiplexed onto a single
// logical CPU, with cooperative and clock-driven preemptive scheduling.
//
// A Scheduler is created with New, then Run, which forks the first thread and
// turns the calling goroutine into the kernel context, dispatching threads
// until none remain. Threads are picked by a multilevel feedback queue: each
// dispatch draws a level at random (weighted towards the first), and each
// level has a quantum, measured in clock ticks, after which the running
// thread is demoted to the next level and preempted.
//
// Threads synchronize using Semaphore, and sleep using SleepWithTimeout,
// which is built on the alarm list (see RegisterAlarm).
//
// # Interrupts
//
// Clock ticks, and funcs passed to Interrupt, are latched as interrupts, and
// delivered on whichever goroutine holds the CPU, at the next delivery point.
// Every runtime operation is a delivery point, as is Checkpoint. A thread
// that never reaches a delivery point cannot be preempted.
//
// Interrupt handlers (including alarm callbacks) run with interrupts
// disabled, and must not block: P, Yield, Stop, and SleepWithTimeout are
// rejected with ErrInterruptContext.
package minithread
