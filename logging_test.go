package minithread

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logMessages(t *testing.T, buf *bytes.Buffer) (entries []map[string]any) {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == `` {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		entries = append(entries, m)
	}
	return entries
}

// TestNewLogger tests the JSON logger helper.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, logiface.LevelInformational)
	l.Info().Str(`k`, `v`).Log(`hello`)
	l.Debug().Log(`filtered`)
	entries := logMessages(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, `hello`, entries[0][`msg`])
	assert.Equal(t, `v`, entries[0][`k`])
	assert.Equal(t, `info`, entries[0][`lvl`])
}

// TestScheduler_Logging tests the scheduler lifecycle entries.
func TestScheduler_Logging(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestScheduler(t, WithLogger(NewLogger(&buf, logiface.LevelDebug)))
	runTest(t, s, func() {
		_, err := s.Fork(func(any) {}, nil)
		assert.NoError(t, err)
	})
	var msgs []string
	for _, e := range logMessages(t, &buf) {
		assert.NotEmpty(t, e[`category`])
		msgs = append(msgs, e[`msg`].(string))
	}
	assert.Equal(t, []string{
		`thread created`,
		`scheduler started`,
		`thread created`,
		`thread exited`,
		`thread exited`,
		`scheduler stopped`,
	}, msgs)
}

// TestScheduler_NilLogger tests that logging is optional.
func TestScheduler_NilLogger(t *testing.T) {
	s, clk := newTestScheduler(t, WithLogger(nil))
	runTest(t, s, func() {
		_, err := s.Fork(func(any) { panic(`ignored`) }, nil)
		assert.NoError(t, err)
		clk.Tick()
		s.Yield()
	})
}

// TestScheduler_Logging_Clock tests the clock interrupt trace entries.
func TestScheduler_Logging_Clock(t *testing.T) {
	var buf bytes.Buffer
	s, clk := newTestScheduler(t, WithLogger(NewLogger(&buf, logiface.LevelTrace)))
	runTest(t, s, func() {
		clk.Tick()
		s.Checkpoint()
		clk.Tick()
		s.Checkpoint()
	})
	var ticks int
	for _, e := range logMessages(t, &buf) {
		if e[`msg`] != `clock interrupt` {
			continue
		}
		ticks++
		assert.Equal(t, `clock`, e[`category`])
		assert.NotEmpty(t, e[`tick`])
	}
	assert.Equal(t, 2, ticks)
}
