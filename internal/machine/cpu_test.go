package machine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPU_StartsDisabled(t *testing.T) {
	var ticks int
	cpu := NewCPU(func() { ticks++ }, func(fn func()) { fn() })
	assert.Equal(t, Disabled, cpu.Level())
	cpu.Raise()
	cpu.Poll()
	assert.Equal(t, 0, ticks)
	assert.Equal(t, uint64(1), cpu.Pending())
	assert.Equal(t, Disabled, cpu.SetLevel(Enabled))
	assert.Equal(t, 1, ticks)
	assert.Equal(t, uint64(0), cpu.Pending())
}

func TestCPU_RestoreNeverForcesEnable(t *testing.T) {
	var ticks int
	cpu := NewCPU(func() { ticks++ }, func(fn func()) { fn() })
	cpu.SetLevel(Enabled)

	outer := cpu.Disable()
	inner := cpu.Disable()
	assert.Equal(t, Enabled, outer)
	assert.Equal(t, Disabled, inner)

	cpu.Raise()
	cpu.Raise()
	cpu.Restore(inner)
	assert.Equal(t, Disabled, cpu.Level())
	assert.Equal(t, 0, ticks)

	cpu.Restore(outer)
	assert.Equal(t, Enabled, cpu.Level())
	assert.Equal(t, 2, ticks)
}

func TestCPU_HandlersRunDisabled(t *testing.T) {
	var cpu *CPU
	var levels []Level
	cpu = NewCPU(
		func() { levels = append(levels, cpu.Level()) },
		func(fn func()) { levels = append(levels, cpu.Level()); fn() },
	)
	cpu.SetLevel(Enabled)
	cpu.Raise()
	var posted bool
	cpu.Post(func() { posted = true })
	cpu.Poll()
	assert.True(t, posted)
	assert.Equal(t, []Level{Disabled, Disabled}, levels)
	assert.Equal(t, Enabled, cpu.Level())
}

func TestCPU_PostedBeforeTicks(t *testing.T) {
	var order []string
	cpu := NewCPU(
		func() { order = append(order, `tick`) },
		func(fn func()) { fn() },
	)
	cpu.Raise()
	cpu.Post(func() { order = append(order, `a`) })
	cpu.Post(func() { order = append(order, `b`) })
	cpu.SetLevel(Enabled)
	assert.Equal(t, []string{`a`, `b`, `tick`}, order)
}

func TestCPU_WaitWakesOnRaise(t *testing.T) {
	cpu := NewCPU(func() {}, func(fn func()) { fn() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		cpu.Raise()
	}()
	require.NoError(t, cpu.Wait(ctx))
	wg.Wait()
	assert.Equal(t, uint64(1), cpu.Pending())
}

func TestCPU_WaitContextDone(t *testing.T) {
	cpu := NewCPU(func() {}, func(fn func()) { fn() })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, cpu.Wait(ctx), context.Canceled)
}

func TestNewCPU_NilHandler(t *testing.T) {
	assert.Panics(t, func() { NewCPU(nil, func(fn func()) {}) })
	assert.Panics(t, func() { NewCPU(func() {}, nil) })
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, `disabled`, Disabled.String())
	assert.Equal(t, `enabled`, Enabled.String())
	assert.Equal(t, `unknown`, Level(7).String())
}

func TestCPU_Halt(t *testing.T) {
	var ticks int
	cpu := NewCPU(func() { ticks++ }, func(fn func()) { fn() })
	cpu.SetLevel(Enabled)
	cpu.Halt()
	assert.True(t, cpu.Halted())
	assert.Equal(t, Disabled, cpu.Level())
	cpu.Raise()
	cpu.Post(func() { t.Error(`unexpected delivery`) })
	assert.Equal(t, Disabled, cpu.SetLevel(Enabled))
	cpu.Restore(Enabled)
	cpu.Poll()
	assert.Equal(t, 0, ticks)
	assert.Equal(t, Disabled, cpu.Level())
}
