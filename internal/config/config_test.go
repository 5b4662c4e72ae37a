package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psantana5/intcheck/internal/intmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	d, err := cfg.Durations()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d.Period)
	assert.Equal(t, 50*time.Millisecond, d.PollInterval)
	assert.Equal(t, 10*time.Millisecond, d.WorkerInterval)
	assert.Equal(t, 's', cfg.StatusKey())
	assert.Equal(t, 'r', cfg.RestartKey())
	assert.Equal(t, intmath.DefaultOperands, cfg.Operands)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
workers: 4
operands:
  c3: 5
worker:
  cooperative: true
  fault_after: 10
monitor:
  period: 500ms
http:
  listen: 127.0.0.1:9190
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(5), cfg.Operands.C3)
	assert.Equal(t, int64(123), cfg.Operands.C1, "unset operands keep defaults")
	assert.True(t, cfg.Worker.Cooperative)
	assert.Equal(t, uint64(10), cfg.Worker.FaultAfter)
	assert.Equal(t, "500ms", cfg.Monitor.Period)
	assert.Equal(t, "50ms", cfg.Monitor.PollInterval)
	assert.Equal(t, "127.0.0.1:9190", cfg.HTTP.Listen)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "workers: [not, a, number]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero divisor", func(c *Config) { c.Operands.C4 = 0 }},
		{"bad period", func(c *Config) { c.Monitor.Period = "soon" }},
		{"zero period", func(c *Config) { c.Monitor.Period = "0s" }},
		{"zero poll", func(c *Config) { c.Monitor.PollInterval = "0s" }},
		{"negative interval", func(c *Config) { c.Worker.Interval = "-1ms" }},
		{"no history", func(c *Config) { c.Monitor.History = 0 }},
		{"same keys", func(c *Config) { c.Keys.Restart = "s" }},
		{"long key", func(c *Config) { c.Keys.Status = "status" }},
		{"http without limit", func(c *Config) { c.HTTP.Listen = ":0"; c.HTTP.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ZeroDivisorIsOperandError(t *testing.T) {
	cfg := Default()
	cfg.Operands.C4 = 0
	assert.True(t, errors.Is(cfg.Validate(), intmath.ErrInvalidOperands))
}
