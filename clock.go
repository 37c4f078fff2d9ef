// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"errors"
	"sync"
	"time"
)

// Clock is a source of periodic clock interrupts.
type Clock interface {
	// Start begins calling tick every period, from any goroutine, until stop
	// is called. The tick func only latches an interrupt, and never blocks.
	Start(period time.Duration, tick func()) (stop func(), err error)
}

// TickerClock ticks using a time.Ticker. It is the default clock.
type TickerClock struct{}

// Start implements Clock.
func (TickerClock) Start(period time.Duration, tick func()) (func(), error) {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			wg.Wait()
		})
	}, nil
}

// ManualClock ticks only when told to, for deterministic tests and
// simulations. Tick and Advance are safe to call from any goroutine,
// including threads of the scheduler it is attached to.
type ManualClock struct {
	mu   sync.Mutex
	tick func()
}

// NewManualClock returns a ManualClock that is not attached to a scheduler.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Start implements Clock. A ManualClock may only be attached to one
// scheduler at a time.
func (x *ManualClock) Start(_ time.Duration, tick func()) (func(), error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.tick != nil {
		return nil, errors.New("minithread: manual clock is already started")
	}
	x.tick = tick
	return func() {
		x.mu.Lock()
		x.tick = nil
		x.mu.Unlock()
	}, nil
}

// Tick raises one clock interrupt. It does nothing if the clock is not
// started.
func (x *ManualClock) Tick() {
	x.Advance(1)
}

// Advance raises n clock interrupts.
func (x *ManualClock) Advance(n int) {
	x.mu.Lock()
	tick := x.tick
	x.mu.Unlock()
	if tick == nil {
		return
	}
	for range n {
		tick()
	}
}
