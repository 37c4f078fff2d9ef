package minithread

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInvariantError tests the message and unwrapping of InvariantError.
func TestInvariantError(t *testing.T) {
	err := invariant(`thread %d`, 3)
	assert.Equal(t, `minithread: invariant violated: thread 3`, err.Error())
	assert.Nil(t, err.Unwrap())

	err = &InvariantError{Message: `enqueue`, Cause: io.EOF}
	assert.Equal(t, `minithread: invariant violated: enqueue: EOF`, err.Error())
	assert.ErrorIs(t, err, io.EOF)
}

// TestPanicError tests the message and unwrapping of PanicError.
func TestPanicError(t *testing.T) {
	assert.Equal(t, `minithread: recovered panic: boom`, PanicError{Value: `boom`}.Error())
	assert.Nil(t, PanicError{Value: 1}.Unwrap())
	var err error = PanicError{Value: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

// TestThreadState_String tests the names of each state.
func TestThreadState_String(t *testing.T) {
	for state, want := range map[ThreadState]string{
		ThreadCreated:  `Created`,
		ThreadReady:    `Ready`,
		ThreadRunning:  `Running`,
		ThreadBlocked:  `Blocked`,
		ThreadZombie:   `Zombie`,
		ThreadState(9): `Unknown`,
	} {
		assert.Equal(t, want, state.String())
	}
}

// TestSchedulerState tests the run state transitions.
func TestSchedulerState(t *testing.T) {
	var s schedulerState
	assert.Equal(t, stateAwake, s.Load())
	assert.False(t, s.TryTransition(stateRunning, stateTerminated))
	assert.True(t, s.TryTransition(stateAwake, stateRunning))
	s.Store(stateTerminated)
	assert.Equal(t, stateTerminated, s.Load())
}
