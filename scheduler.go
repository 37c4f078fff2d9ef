// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package minithread

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-minithread/internal/machine"
	"github.com/joeycumines/go-minithread/internal/mlfq"
	"github.com/joeycumines/logiface"
)

var schedulerIDs atomic.Uint64

// Scheduler runs threads on a single logical CPU. See New and Run.
//
// Exactly one goroutine holds the CPU at any time: the kernel context (the
// goroutine that called Run), or one thread. Runtime operations must be
// called while holding the CPU, i.e. from a thread, or from an interrupt
// handler (alarm callbacks, and funcs passed to Interrupt).
type Scheduler struct {
	logger  *logiface.Logger[logiface.Event]
	clock   Clock
	random  func() float64
	cpu     *machine.CPU
	ready   *mlfq.Queue[ThreadID]
	threads map[ThreadID]*thread
	zombies *mlfq.FIFO[ThreadID]
	kernel  *thread
	current atomic.Pointer[thread]

	alarms   alarmList
	alarmBuf []*Alarm

	state       schedulerState
	id          uint64
	period      time.Duration
	zombieLimit int
	maxThreads  int
	nextID      ThreadID
	ticks       uint64
	interrupted int
	live        int

	reclaimed   uint64
	switches    uint64
	preemptions uint64
}

// Stats is a snapshot of the scheduler's bookkeeping. Every thread record is
// counted in exactly one of Created, Ready, Running, Blocked, or Zombies.
type Stats struct {
	// Ticks is the number of clock interrupts handled.
	Ticks uint64
	// Records is the number of thread records that have not been reclaimed.
	Records int
	// Live is the number of started threads that have not exited.
	Live    int
	Created int
	Ready   int
	Running int
	Blocked int
	Zombies int
	// Reclaimed is the number of thread records released so far.
	Reclaimed uint64
	// Switches is the number of dispatches.
	Switches uint64
	// Preemptions is the number of quantum expiries.
	Preemptions uint64
	// PendingAlarms is the number of registered alarms that have not fired.
	PendingAlarms int
}

// New initializes a Scheduler. It does nothing until Run is called.
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	ready, err := mlfq.New[ThreadID](cfg.policy)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		logger:      cfg.logger,
		clock:       cfg.clock,
		random:      cfg.random,
		ready:       ready,
		threads:     make(map[ThreadID]*thread),
		zombies:     mlfq.NewFIFO[ThreadID](8),
		id:          schedulerIDs.Add(1),
		period:      cfg.period,
		zombieLimit: cfg.zombieLimit,
		maxThreads:  cfg.maxThreads,
	}
	s.cpu = machine.NewCPU(s.clockInterrupt, s.deviceInterrupt)
	return s, nil
}

// Run starts the system: entry is forked as the first thread, the clock is
// started, interrupts are enabled, and the calling goroutine becomes the
// kernel context, dispatching threads until none remain.
//
// Run returns nil once every thread has exited and no alarms are pending, or
// ctx.Err() if ctx is done first. Any threads remaining are torn down before
// it returns. A Scheduler may only be run once.
func (s *Scheduler) Run(ctx context.Context, entry func(any), arg any) error {
	if entry == nil {
		return ErrNilEntry
	}
	if !s.state.TryTransition(stateAwake, stateRunning) {
		if s.state.Load() == stateTerminated {
			return ErrTerminated
		}
		return ErrAlreadyRunning
	}
	defer s.state.Store(stateTerminated)

	s.kernel = &thread{id: KernelID, state: ThreadRunning, ctx: machine.Bind()}
	s.current.Store(s.kernel)
	defer s.teardown()

	main, err := s.newThread(entry, arg)
	if err != nil {
		return err
	}
	s.start(main)

	stop, err := s.clock.Start(s.period, s.cpu.Raise)
	if err != nil {
		err = fmt.Errorf("minithread: start clock: %w", err)
		s.logger.Err().
			Str("category", categoryClock).
			Uint64("scheduler", s.id).
			Err(err).
			Log("clock failed to start")
		return err
	}
	defer stop()

	s.logger.Info().
		Str("category", categorySched).
		Uint64("scheduler", s.id).
		Dur("period", s.period).
		Int("levels", s.ready.Levels()).
		Log("scheduler started")

	s.cpu.SetLevel(machine.Enabled)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.step() {
			continue
		}
		if s.idle() {
			return nil
		}
		if err := s.cpu.Wait(ctx); err != nil {
			return err
		}
		s.cpu.Poll()
	}
}

// step performs one iteration of the kernel loop, returning false if there
// was nothing to dispatch.
func (s *Scheduler) step() bool {
	defer s.cpu.Restore(s.cpu.Disable())
	if s.zombies.Len() >= s.zombieLimit {
		s.reclaim()
	}
	if s.ready.Len() == 0 {
		return false
	}
	s.dispatch()
	return true
}

func (s *Scheduler) idle() bool {
	defer s.cpu.Restore(s.cpu.Disable())
	return s.live == 0 && s.alarms.pending == 0 && s.ready.Len() == 0
}

// dispatch switches to the next thread chosen by the feedback queue. Must be
// called from the kernel context, with interrupts disabled.
func (s *Scheduler) dispatch() {
	id, level, ok := s.ready.Select(s.random())
	if !ok {
		panic(invariant(`dispatch from an empty ready queue`))
	}
	t := s.threads[id]
	if t == nil || t.state != ThreadReady {
		panic(invariant(`dispatch of thread %d which is not ready`, id))
	}
	t.state = ThreadRunning
	t.runLevel = level
	s.switches++
	s.current.Store(t)
	s.logThread(s.logger.Trace(), t).Log("dispatch")
	machine.Switch(s.kernel.ctx, t.ctx)
}

// toKernel parks t, which must be current, switching to the kernel context.
// The caller must have disabled interrupts, and set the state of t.
func (s *Scheduler) toKernel(t *thread) {
	s.current.Store(s.kernel)
	machine.Switch(t.ctx, s.kernel.ctx)
}

func (s *Scheduler) enqueue(t *thread) {
	if err := s.ready.Enqueue(t.runLevel, t.id); err != nil {
		panic(&InvariantError{Cause: err, Message: fmt.Sprintf(`enqueue of thread %d`, t.id)})
	}
}

// start moves a created thread to the tail of the first level.
func (s *Scheduler) start(t *thread) {
	t.state = ThreadReady
	t.runLevel = 0
	t.quantaLeft = s.ready.Quantum(0)
	s.live++
	s.enqueue(t)
}

func (s *Scheduler) wake(t *thread) {
	t.state = ThreadReady
	s.enqueue(t)
	s.logThread(s.logger.Trace(), t).Log("thread woken")
}

func (s *Scheduler) teardown() {
	s.cpu.Halt()
	s.reclaim()
	for id, t := range s.threads {
		t.ctx.Kill()
		delete(s.threads, id)
	}
	s.logger.Info().
		Str("category", categorySched).
		Uint64("scheduler", s.id).
		Uint64("ticks", s.ticks).
		Uint64("switches", s.switches).
		Uint64("reclaimed", s.reclaimed).
		Int("live", s.live).
		Log("scheduler stopped")
}

// clockInterrupt is the clock handler, called in interrupt context on
// whichever context holds the CPU.
func (s *Scheduler) clockInterrupt() {
	s.ticks++
	s.logger.Trace().
		Str("category", categoryClock).
		Uint64("scheduler", s.id).
		Uint64("tick", s.ticks).
		Int("alarms", s.alarms.pending).
		Log("clock interrupt")
	s.fireAlarms()

	t := s.current.Load()
	if t == s.kernel || t.state != ThreadRunning {
		return
	}
	t.quantaLeft--
	if t.quantaLeft > 0 {
		return
	}
	t.runLevel = (t.runLevel + 1) % s.ready.Levels()
	t.quantaLeft = s.ready.Quantum(t.runLevel)
	t.state = ThreadReady
	s.enqueue(t)
	s.preemptions++
	s.logThread(s.logger.Debug(), t).Uint64("tick", s.ticks).Log("quantum expired")
	s.toKernel(t)
}

func (s *Scheduler) deviceInterrupt(fn func()) {
	s.handle(categorySched, fn)
}

// handle runs user code in interrupt context.
func (s *Scheduler) handle(category string, fn func()) {
	s.interrupted++
	defer func() {
		s.interrupted--
		if r := recover(); r != nil {
			if _, ok := r.(*InvariantError); ok {
				panic(r)
			}
			s.logPanic(category, s.current.Load().id, r)
		}
	}()
	fn()
}

// onCPU returns the current thread (or the kernel), if the caller holds the
// CPU.
func (s *Scheduler) onCPU() (*thread, error) {
	switch s.state.Load() {
	case stateRunning:
	case stateTerminated:
		return nil, ErrTerminated
	default:
		return nil, ErrNotOnCPU
	}
	t := s.current.Load()
	if t == nil || !t.ctx.Owned() {
		return nil, ErrNotOnCPU
	}
	return t, nil
}

// onThread is onCPU, but also requires a thread that may block.
func (s *Scheduler) onThread() (*thread, error) {
	t, err := s.onCPU()
	if err != nil {
		return nil, err
	}
	if s.interrupted != 0 {
		return nil, ErrInterruptContext
	}
	if t == s.kernel {
		return nil, ErrKernelContext
	}
	return t, nil
}

func (s *Scheduler) mustCPU(op string) *thread {
	t, err := s.onCPU()
	if err != nil {
		panic(fmt.Errorf("minithread: %s: %w", op, err))
	}
	return t
}

func (s *Scheduler) mustThread(op string) *thread {
	t, err := s.onThread()
	if err != nil {
		panic(fmt.Errorf("minithread: %s: %w", op, err))
	}
	return t
}

// Create allocates a thread that will run entry(arg), but does not start it.
func (s *Scheduler) Create(entry func(any), arg any) (ThreadID, error) {
	if _, err := s.onCPU(); err != nil {
		return 0, err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	t, err := s.newThread(entry, arg)
	if err != nil {
		return 0, err
	}
	return t.id, nil
}

// Start makes a created thread ready, at the first level.
func (s *Scheduler) Start(id ThreadID) error {
	if _, err := s.onCPU(); err != nil {
		return err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	t, ok := s.threads[id]
	if !ok || id == KernelID {
		return ErrUnknownThread
	}
	if t.state != ThreadCreated {
		return ErrNotCreated
	}
	s.start(t)
	return nil
}

// Fork creates and starts a thread that will run entry(arg).
func (s *Scheduler) Fork(entry func(any), arg any) (ThreadID, error) {
	if _, err := s.onCPU(); err != nil {
		return 0, err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	t, err := s.newThread(entry, arg)
	if err != nil {
		return 0, err
	}
	s.start(t)
	return t.id, nil
}

// Yield moves the calling thread to the tail of its level, and switches to
// the kernel context. The remaining quantum is kept. Panics if not called
// from a thread.
func (s *Scheduler) Yield() {
	t := s.mustThread("yield")
	defer s.cpu.Restore(s.cpu.Disable())
	t.state = ThreadReady
	s.enqueue(t)
	s.toKernel(t)
}

// Stop blocks the calling thread until another calls Wake. Panics if not
// called from a thread.
func (s *Scheduler) Stop() {
	t := s.mustThread("stop")
	defer s.cpu.Restore(s.cpu.Disable())
	t.state = ThreadBlocked
	s.logThread(s.logger.Trace(), t).Log("thread stopped")
	s.toKernel(t)
}

// Wake makes a thread blocked by Stop ready, at the level it last ran at.
// It does not switch. Threads blocked on a semaphore are only woken by V,
// and are reported as ErrNotBlocked.
func (s *Scheduler) Wake(id ThreadID) error {
	if _, err := s.onCPU(); err != nil {
		return err
	}
	defer s.cpu.Restore(s.cpu.Disable())
	t, ok := s.threads[id]
	if !ok || id == KernelID {
		return ErrUnknownThread
	}
	if t.state != ThreadBlocked || t.sem != nil {
		return ErrNotBlocked
	}
	s.wake(t)
	return nil
}

// Self returns the handle of the calling thread, or KernelID from an
// interrupt handler run by the kernel context. Panics if the caller does
// not hold the CPU.
func (s *Scheduler) Self() ThreadID {
	return s.mustCPU("self").id
}

// ID returns Self as an int.
func (s *Scheduler) ID() int {
	return int(s.Self())
}

// Checkpoint is an interrupt delivery point: latched interrupts are handled,
// which may preempt the caller. Threads that run for long periods without
// calling into the scheduler should call it regularly.
func (s *Scheduler) Checkpoint() {
	s.mustCPU("checkpoint")
	s.cpu.Poll()
}

// Interrupt queues fn to be called in interrupt context, on the CPU. It is
// safe to call from any goroutine, and is the way for code outside of the
// scheduler to interact with it, e.g. to V a semaphore when IO completes.
func (s *Scheduler) Interrupt(fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if s.state.Load() == stateTerminated {
		return ErrTerminated
	}
	s.cpu.Post(fn)
	return nil
}

// Info returns a copy of the thread's record, or false if the caller does
// not hold the CPU, or the thread is unknown.
func (s *Scheduler) Info(id ThreadID) (ThreadInfo, bool) {
	if _, err := s.onCPU(); err != nil {
		return ThreadInfo{}, false
	}
	defer s.cpu.Restore(s.cpu.Disable())
	if id == KernelID {
		return s.kernel.info(), true
	}
	t, ok := s.threads[id]
	if !ok {
		return ThreadInfo{}, false
	}
	return t.info(), true
}

// Stats returns a snapshot of the scheduler's bookkeeping. It must be called
// holding the CPU, or after Run has returned.
func (s *Scheduler) Stats() Stats {
	if _, err := s.onCPU(); err != nil && !errors.Is(err, ErrTerminated) {
		panic(fmt.Errorf("minithread: stats: %w", err))
	}
	defer s.cpu.Restore(s.cpu.Disable())
	v := Stats{
		Ticks:         s.ticks,
		Records:       len(s.threads),
		Live:          s.live,
		Reclaimed:     s.reclaimed,
		Switches:      s.switches,
		Preemptions:   s.preemptions,
		PendingAlarms: s.alarms.pending,
	}
	for _, t := range s.threads {
		switch t.state {
		case ThreadCreated:
			v.Created++
		case ThreadReady:
			v.Ready++
		case ThreadRunning:
			v.Running++
		case ThreadBlocked:
			v.Blocked++
		case ThreadZombie:
			v.Zombies++
		}
	}
	return v
}
