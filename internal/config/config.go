package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/psantana5/intcheck/internal/intmath"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for the demo
type Config struct {
	Workers  int              `yaml:"workers" json:"workers"`
	Operands intmath.Operands `yaml:"operands" json:"operands"`
	Worker   WorkerConfig     `yaml:"worker" json:"worker"`
	Monitor  MonitorConfig    `yaml:"monitor" json:"monitor"`
	Keys     KeysConfig       `yaml:"keys" json:"keys"`
	Log      LogConfig        `yaml:"log" json:"log"`
	HTTP     HTTPConfig       `yaml:"http" json:"http"`
}

// WorkerConfig controls the calculation tasks
type WorkerConfig struct {
	Interval    string `yaml:"interval" json:"interval"` // e.g. "10ms"; "0s" runs a tight loop
	Cooperative bool   `yaml:"cooperative" json:"cooperative"`
	FaultAfter  uint64 `yaml:"fault_after" json:"fault_after"` // corrupt this iteration of worker 0; 0 disables
}

// MonitorConfig controls the check schedule
type MonitorConfig struct {
	Period       string `yaml:"period" json:"period"`               // timer reload period, e.g. "2s"
	PollInterval string `yaml:"poll_interval" json:"poll_interval"` // e.g. "50ms"
	History      int    `yaml:"history" json:"history"`             // checks kept for status and summary
}

// KeysConfig names the console commands
type KeysConfig struct {
	Status  string `yaml:"status" json:"status"`
	Restart string `yaml:"restart" json:"restart"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
	File  string `yaml:"file" json:"file"`
}

// HTTPConfig controls the optional operator endpoint
type HTTPConfig struct {
	Listen    string  `yaml:"listen" json:"listen"` // empty disables the endpoint
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// Default returns the configuration of the original demo: one worker
// checked every two seconds.
func Default() *Config {
	return &Config{
		Workers:  1,
		Operands: intmath.DefaultOperands,
		Worker: WorkerConfig{
			Interval: "10ms",
		},
		Monitor: MonitorConfig{
			Period:       "2s",
			PollInterval: "50ms",
			History:      100,
		},
		Keys: KeysConfig{
			Status:  "s",
			Restart: "r",
		},
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			RateLimit: 5,
			Burst:     2,
		},
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Durations are the parsed duration fields
type Durations struct {
	WorkerInterval time.Duration
	Period         time.Duration
	PollInterval   time.Duration
}

// Durations parses the duration strings
func (c *Config) Durations() (Durations, error) {
	var d Durations
	var err error

	if d.WorkerInterval, err = time.ParseDuration(c.Worker.Interval); err != nil {
		return d, fmt.Errorf("invalid worker.interval: %w", err)
	}
	if d.Period, err = time.ParseDuration(c.Monitor.Period); err != nil {
		return d, fmt.Errorf("invalid monitor.period: %w", err)
	}
	if d.PollInterval, err = time.ParseDuration(c.Monitor.PollInterval); err != nil {
		return d, fmt.Errorf("invalid monitor.poll_interval: %w", err)
	}
	return d, nil
}

// StatusKey returns the status command key
func (c *Config) StatusKey() rune {
	r, _ := utf8.DecodeRuneInString(c.Keys.Status)
	return r
}

// RestartKey returns the restart command key
func (c *Config) RestartKey() rune {
	r, _ := utf8.DecodeRuneInString(c.Keys.Restart)
	return r
}

// Validate checks the configuration for values the demo cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if err := c.Operands.Validate(); err != nil {
		errs = append(errs, err)
	}

	d, err := c.Durations()
	if err != nil {
		errs = append(errs, err)
	} else {
		if d.WorkerInterval < 0 {
			errs = append(errs, fmt.Errorf("worker.interval must not be negative, got %v", d.WorkerInterval))
		}
		if d.Period <= 0 {
			errs = append(errs, fmt.Errorf("monitor.period must be positive, got %v", d.Period))
		}
		if d.PollInterval <= 0 {
			errs = append(errs, fmt.Errorf("monitor.poll_interval must be positive, got %v", d.PollInterval))
		}
	}

	if c.Monitor.History < 1 {
		errs = append(errs, fmt.Errorf("monitor.history must be at least 1, got %d", c.Monitor.History))
	}

	if utf8.RuneCountInString(c.Keys.Status) != 1 || utf8.RuneCountInString(c.Keys.Restart) != 1 {
		errs = append(errs, fmt.Errorf("keys must be single characters, got %q and %q", c.Keys.Status, c.Keys.Restart))
	} else if c.Keys.Status == c.Keys.Restart {
		errs = append(errs, fmt.Errorf("keys.status and keys.restart must differ, both are %q", c.Keys.Status))
	}

	if c.HTTP.Listen != "" && (c.HTTP.RateLimit <= 0 || c.HTTP.Burst < 1) {
		errs = append(errs, fmt.Errorf("http.rate_limit and http.burst must be positive, got %v and %d", c.HTTP.RateLimit, c.HTTP.Burst))
	}

	return errors.Join(errs...)
}
