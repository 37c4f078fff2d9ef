// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/joeycumines/go-minithread/internal/mlfq"
	"github.com/joeycumines/logiface"
)

const (
	// DefaultClockPeriod is the interval between clock interrupts.
	DefaultClockPeriod = 100 * time.Millisecond

	// DefaultZombieLimit is the number of exited threads that accumulate
	// before the kernel context reclaims them.
	DefaultZombieLimit = 5
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	logger      *logiface.Logger[logiface.Event]
	clock       Clock
	random      func() float64
	policy      mlfq.Policy
	period      time.Duration
	zombieLimit int
	maxThreads  int
}

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithLogger configures structured logging. A nil logger (the default)
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithClock sets the source of clock interrupts. Defaults to a TickerClock.
func WithClock(clock Clock) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if clock == nil {
			return errors.New("minithread: nil clock")
		}
		opts.clock = clock
		return nil
	}}
}

// WithClockPeriod sets the interval between clock interrupts, which is also
// the unit alarm delays are rounded up to. Defaults to DefaultClockPeriod.
func WithClockPeriod(period time.Duration) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if period <= 0 {
			return errors.New("minithread: clock period must be positive")
		}
		opts.period = period
		return nil
	}}
}

// WithPolicy sets the multilevel feedback queue policy: the quantum, in clock
// ticks, and the dispatch weight, of each level. The weights must sum to 1.
// Defaults to 4 levels, quanta 1, 2, 4, 8, weights 0.50, 0.25, 0.15, 0.10.
func WithPolicy(quanta []int, weights []float64) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		policy := mlfq.Policy{Quanta: quanta, Weights: weights}
		if err := policy.Validate(); err != nil {
			return err
		}
		opts.policy = policy
		return nil
	}}
}

// WithRandom sets the source of uniform values in [0, 1), used for the
// weighted level draw on each dispatch. Defaults to math/rand/v2.Float64.
func WithRandom(random func() float64) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if random == nil {
			return errors.New("minithread: nil random source")
		}
		opts.random = random
		return nil
	}}
}

// WithZombieLimit sets how many exited threads accumulate before they are
// reclaimed. Defaults to DefaultZombieLimit.
func WithZombieLimit(limit int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if limit <= 0 {
			return errors.New("minithread: zombie limit must be positive")
		}
		opts.zombieLimit = limit
		return nil
	}}
}

// WithMaxThreads limits the number of thread records (including zombies that
// have not been reclaimed), past which thread creation fails with
// ErrTooManyThreads. Zero (the default) means unlimited.
func WithMaxThreads(limit int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if limit < 0 {
			return errors.New("minithread: max threads must not be negative")
		}
		opts.maxThreads = limit
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		clock:       TickerClock{},
		random:      rand.Float64,
		policy:      mlfq.DefaultPolicy(),
		period:      DefaultClockPeriod,
		zombieLimit: DefaultZombieLimit,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
