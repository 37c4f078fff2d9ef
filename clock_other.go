// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux

package minithread

import (
	"time"
)

// SignalClock ticks on SIGALRM, which is only supported on linux.
type SignalClock struct{}

// Start implements Clock, and always fails with ErrClockUnsupported.
func (SignalClock) Start(time.Duration, func()) (func(), error) {
	return nil, ErrClockUnsupported
}
