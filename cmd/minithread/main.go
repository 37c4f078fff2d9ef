// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command minithread runs demonstration workloads on the scheduler.
//
//	minithread [flags] shop|alarms
//
// The shop scenario has employees unpacking phones, and customers buying
// them, serialized with semaphores. The alarms scenario has threads sleeping
// for various durations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	minithread "github.com/joeycumines/go-minithread"
	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

type config struct {
	period    time.Duration
	status    time.Duration
	clock     string
	logLevel  string
	employees int
	customers int
	phones    int
	sleepUnit time.Duration
}

var scenarios = map[string]func(s *minithread.Scheduler, cfg *config, out io.Writer) func(any){
	`shop`:   shopScenario,
	`alarms`: alarmsScenario,
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cfg config
	fs := flag.NewFlagSet(`minithread`, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.DurationVar(&cfg.period, `period`, minithread.DefaultClockPeriod, `clock interrupt period`)
	fs.DurationVar(&cfg.status, `status`, 0, `interval to log scheduler stats, 0 to disable`)
	fs.StringVar(&cfg.clock, `clock`, `ticker`, `clock source: ticker or signal`)
	fs.StringVar(&cfg.logLevel, `log-level`, `warning`, `log level, e.g. info, debug, trace`)
	fs.IntVar(&cfg.employees, `employees`, 30, `shop: number of employees`)
	fs.IntVar(&cfg.customers, `customers`, 400, `shop: number of customers`)
	fs.IntVar(&cfg.phones, `phones`, 300, `shop: number of phones`)
	fs.DurationVar(&cfg.sleepUnit, `sleep-unit`, time.Second, `alarms: base sleep duration`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf(`expected one scenario argument, got %d`, fs.NArg())
	}
	scenario, ok := scenarios[fs.Arg(0)]
	if !ok {
		return fmt.Errorf(`unknown scenario %q`, fs.Arg(0))
	}

	level, err := parseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	logger := minithread.NewLogger(stderr, level)

	var clock minithread.Clock
	switch cfg.clock {
	case `ticker`:
		clock = minithread.TickerClock{}
	case `signal`:
		clock = minithread.SignalClock{}
	default:
		return fmt.Errorf(`unknown clock %q`, cfg.clock)
	}

	s, err := minithread.New(
		minithread.WithLogger(logger),
		minithread.WithClock(clock),
		minithread.WithClockPeriod(cfg.period),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return s.Run(ctx, scenario(s, &cfg, stdout), nil)
	})
	if cfg.status > 0 {
		g.Go(func() error {
			return reportStatus(ctx, done, s, logger, cfg.status)
		})
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reportStatus periodically logs stats, using an interrupt to read them on
// the CPU.
func reportStatus(ctx context.Context, done <-chan struct{}, s *minithread.Scheduler, logger *logiface.Logger[logiface.Event], interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ticker.C:
		}
		err := s.Interrupt(func() {
			st := s.Stats()
			logger.Notice().
				Str(`category`, `status`).
				Uint64(`ticks`, st.Ticks).
				Int(`live`, st.Live).
				Int(`ready`, st.Ready).
				Int(`blocked`, st.Blocked).
				Int(`zombies`, st.Zombies).
				Uint64(`switches`, st.Switches).
				Uint64(`preemptions`, st.Preemptions).
				Int(`alarms`, st.PendingAlarms).
				Log(`status`)
		})
		if errors.Is(err, minithread.ErrTerminated) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func parseLevel(s string) (logiface.Level, error) {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == s {
			return level, nil
		}
	}
	return 0, fmt.Errorf(`unknown log level %q`, s)
}
