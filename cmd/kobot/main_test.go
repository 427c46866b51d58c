package main

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kobot/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_Version(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestRoot_MissingClockPrintsUsage(t *testing.T) {
	t.Setenv("KOBOT_CLOCK", "")

	out, err := execute(t)
	require.ErrorIs(t, err, config.ErrInvalidClock)
	assert.Contains(t, out, "the clock option is required")
	assert.Contains(t, out, "--clock")
}

func TestRoot_InvalidClock(t *testing.T) {
	out, err := execute(t, "-c", "lunch")
	require.ErrorIs(t, err, config.ErrInvalidClock)
	assert.Contains(t, out, "Usage:")
}

func TestRoot_InvalidSkipDate(t *testing.T) {
	_, err := execute(t, "-c", "in", "-s", "2026/05/01")
	assert.ErrorIs(t, err, config.ErrInvalidSkipDate)
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "-c", "in", "-l", "verbose")
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}
