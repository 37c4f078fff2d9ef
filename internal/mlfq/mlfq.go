// Package mlfq implements a multilevel feedback queue, with a weighted random
// level draw, as used to pick the next thread to dispatch.
//
// The queue is not safe for concurrent use. Callers serialize access by other
// means (the scheduler only touches it with interrupts disabled).
package mlfq

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

type (
	// Policy models the per-level quantum and dispatch weight.
	Policy struct {
		// Quanta is the number of clock ticks a thread may run at each level,
		// before it is demoted to the next.
		Quanta []int

		// Weights is the probability that a dispatch will start its search at
		// each level. Must sum to 1.
		Weights []float64
	}

	// Queue aggregates one FIFO per level, and tracks the total length.
	Queue[E any] struct {
		policy Policy
		levels []*FIFO[E]
		total  int
	}
)

// weightTolerance is how far the sum of Policy.Weights may drift from 1.
const weightTolerance = 1e-9

var (
	// ErrInvalidPolicy is returned by Policy.Validate, wrapped.
	ErrInvalidPolicy = errors.New(`mlfq: invalid policy`)

	// ErrLevelRange is returned when a level is outside [0, Levels()).
	ErrLevelRange = errors.New(`mlfq: level out of range`)
)

// DefaultPolicy returns the reference policy: 4 levels, with quanta 1, 2, 4,
// 8, and weights 0.50, 0.25, 0.15, 0.10.
func DefaultPolicy() Policy {
	return Policy{
		Quanta:  []int{1, 2, 4, 8},
		Weights: []float64{0.50, 0.25, 0.15, 0.10},
	}
}

// Validate checks the policy is usable.
func (x Policy) Validate() error {
	if len(x.Quanta) == 0 {
		return fmt.Errorf(`%w: no levels`, ErrInvalidPolicy)
	}
	if len(x.Quanta) != len(x.Weights) {
		return fmt.Errorf(`%w: %d quanta but %d weights`, ErrInvalidPolicy, len(x.Quanta), len(x.Weights))
	}
	if slices.ContainsFunc(x.Quanta, func(q int) bool { return q <= 0 }) {
		return fmt.Errorf(`%w: quanta must be positive`, ErrInvalidPolicy)
	}
	if slices.ContainsFunc(x.Weights, func(w float64) bool { return w < 0 || math.IsNaN(w) }) {
		return fmt.Errorf(`%w: weights must be non-negative`, ErrInvalidPolicy)
	}
	if s := sum(x.Weights); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf(`%w: weights sum to %v`, ErrInvalidPolicy, s)
	}
	return nil
}

// Levels returns the number of levels.
func (x Policy) Levels() int { return len(x.Quanta) }

// Quantum returns the quantum for the given level.
func (x Policy) Quantum(level int) int { return x.Quanta[level] }

// Select maps a uniform random value r, in [0, 1), to the smallest level for
// which the cumulative weight exceeds r. Rounding error in the weights is
// absorbed by the last level.
func (x Policy) Select(r float64) int {
	var cumulative float64
	for level, w := range x.Weights {
		cumulative += w
		if cumulative > r {
			return level
		}
	}
	return len(x.Weights) - 1
}

func (x Policy) clone() Policy {
	return Policy{
		Quanta:  slices.Clone(x.Quanta),
		Weights: slices.Clone(x.Weights),
	}
}

// New initializes a Queue for the given policy, which is validated, and
// copied.
func New[E any](policy Policy) (*Queue[E], error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	x := Queue[E]{
		policy: policy.clone(),
		levels: make([]*FIFO[E], policy.Levels()),
	}
	for i := range x.levels {
		x.levels[i] = NewFIFO[E](8)
	}
	return &x, nil
}

// Policy returns a copy of the queue's policy.
func (x *Queue[E]) Policy() Policy { return x.policy.clone() }

// Levels returns the number of levels.
func (x *Queue[E]) Levels() int { return len(x.levels) }

// Quantum returns the quantum for the given level.
func (x *Queue[E]) Quantum(level int) int { return x.policy.Quantum(level) }

// Len returns the total number of queued elements, across all levels.
func (x *Queue[E]) Len() int { return x.total }

// LevelLen returns the number of elements queued at level.
func (x *Queue[E]) LevelLen(level int) int {
	if level < 0 || level >= len(x.levels) {
		return 0
	}
	return x.levels[level].Len()
}

// Snapshot returns the elements queued at level, head first.
func (x *Queue[E]) Snapshot(level int) []E {
	if level < 0 || level >= len(x.levels) {
		return nil
	}
	return x.levels[level].Slice()
}

// Enqueue appends value to the tail of level.
func (x *Queue[E]) Enqueue(level int, value E) error {
	if level < 0 || level >= len(x.levels) {
		return fmt.Errorf(`%w: %d`, ErrLevelRange, level)
	}
	x.levels[level].PushBack(value)
	x.total++
	return nil
}

// Dequeue removes the head of the first non-empty level, scanning upwards
// from level, wrapping around. The level the value was found at is returned.
// If the queue is empty, ok will be false.
func (x *Queue[E]) Dequeue(level int) (value E, found int, ok bool) {
	n := len(x.levels)
	if x.total == 0 || level < 0 || level >= n {
		return value, -1, false
	}
	for i := 0; i < n; i++ {
		l := (level + i) % n
		if value, ok = x.levels[l].PopFront(); ok {
			x.total--
			return value, l, true
		}
	}
	// unreachable unless total is out of sync with the levels
	panic(`mlfq: dequeue: total count out of sync`)
}

// Select performs a dispatch step, using r (uniform in [0, 1)) to pick the
// level to start the search from. See Policy.Select and Queue.Dequeue.
func (x *Queue[E]) Select(r float64) (value E, found int, ok bool) {
	return x.Dequeue(x.policy.Select(r))
}

func sum[F constraints.Float](s []F) (v F) {
	for _, f := range s {
		v += f
	}
	return v
}
