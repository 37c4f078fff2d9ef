package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Shop(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{
		`-period=1ms`,
		`-employees=3`,
		`-customers=10`,
		`-phones=6`,
		`-status=1ms`,
		`shop`,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 10)
	var serials, soldOut int
	for _, line := range lines {
		if strings.HasSuffix(line, `sold out`) {
			soldOut++
			continue
		}
		serials++
		assert.True(t, strings.HasSuffix(line, fmt.Sprintf(`: phone %d`, serials)), line)
	}
	assert.Equal(t, 6, serials)
	assert.Equal(t, 4, soldOut)
}

func TestRun_Alarms(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{`-period=1ms`, `-sleep-unit=20ms`, `-log-level=info`, `alarms`}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Equal(t, `thread 1 starts
thread 2 starts
thread 3 runs and finishes
thread 1 woke up, and sleeps again
thread 2 woke up and finishes
thread 1 woke up and finishes
`, stdout.String())
	assert.Contains(t, stderr.String(), `scheduler started`)
	assert.Contains(t, stderr.String(), `scheduler stopped`)
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{`shop`, `alarms`},
		{`unknown`},
		{`-clock=sundial`, `shop`},
		{`-log-level=loud`, `shop`},
		{`-period=0s`, `shop`},
		{`-not-a-flag`, `shop`},
	} {
		var stdout, stderr bytes.Buffer
		assert.Error(t, run(args, &stdout, &stderr), args)
		assert.Empty(t, stdout.String(), args)
	}
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel(`debug`)
	require.NoError(t, err)
	assert.Equal(t, `debug`, level.String())
	_, err = parseLevel(`verbose`)
	assert.Error(t, err)
}
