// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"fmt"
	"io"

	minithread "github.com/joeycumines/go-minithread"
)

// shop models employees unpacking phones, in serial order, and customers
// taking them, one customer at a time.
type shop struct {
	s        *minithread.Scheduler
	out      io.Writer
	counter  *minithread.Semaphore
	records  *minithread.Semaphore
	packed   int
	unpacked int
	serial   int
}

func shopScenario(s *minithread.Scheduler, cfg *config, out io.Writer) func(any) {
	return func(any) {
		x := &shop{
			s:       s,
			out:     out,
			counter: s.NewSemaphore(1),
			records: s.NewSemaphore(1),
			packed:  cfg.phones,
			serial:  1,
		}
		for range cfg.employees {
			if _, err := s.Fork(x.employee, nil); err != nil {
				panic(err)
			}
		}
		for range cfg.customers {
			if _, err := s.Fork(x.customer, nil); err != nil {
				panic(err)
			}
		}
	}
}

func (x *shop) employee(any) {
	for x.packed > 0 {
		x.unpack()
		x.s.Yield()
	}
}

func (x *shop) unpack() {
	if err := x.records.P(); err != nil {
		panic(err)
	}
	defer func() {
		if err := x.records.V(); err != nil {
			panic(err)
		}
	}()
	if x.packed > 0 {
		x.packed--
		x.unpacked++
	}
}

func (x *shop) customer(any) {
	if err := x.counter.P(); err != nil {
		panic(err)
	}
	for x.unpacked == 0 && x.packed > 0 {
		x.s.Yield()
	}
	if x.unpacked > 0 {
		x.unpacked--
		_, _ = fmt.Fprintf(x.out, "customer %d: phone %d\n", x.s.Self(), x.serial)
		x.serial++
	} else {
		_, _ = fmt.Fprintf(x.out, "customer %d: sold out\n", x.s.Self())
	}
	if err := x.counter.V(); err != nil {
		panic(err)
	}
}
