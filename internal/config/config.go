// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the per-project devctl configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// FileName is the project-local configuration file looked up in the working directory.
const FileName = ".devctl.yaml"

// Config represents the devctl configuration for a single project directory.
type Config struct {
	// Command is the dev server command line (argv, not a shell string).
	Command []string `yaml:"command"`

	// Probe is run before spawning to verify Command is invocable.
	// Empty means only the executable lookup is performed.
	Probe []string `yaml:"probe"`

	// Env holds extra environment variables for the dev server.
	Env map[string]string `yaml:"env,omitempty"`

	// StartupGrace is how long start waits before re-checking liveness.
	StartupGrace time.Duration `yaml:"startup_grace"`

	// StopPollInterval is the delay between liveness checks while stopping.
	StopPollInterval time.Duration `yaml:"stop_poll_interval"`

	// StopPollAttempts bounds the graceful shutdown window before SIGKILL.
	StopPollAttempts int `yaml:"stop_poll_attempts"`

	// RestartDelay is the pause between stop and start during restart.
	RestartDelay time.Duration `yaml:"restart_delay"`

	// ProbeTimeout bounds the availability probe.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// TailLines is the number of existing log lines printed before following.
	TailLines int `yaml:"tail_lines"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Command:          []string{"npm", "run", "dev"},
		Probe:            []string{"npm", "run", "dev", "--help"},
		StartupGrace:     2 * time.Second,
		StopPollInterval: time.Second,
		StopPollAttempts: 10,
		RestartDelay:     2 * time.Second,
		ProbeTimeout:     30 * time.Second,
		TailLines:        50,
	}
}

// Load builds the configuration for the project rooted at dir.
//
// Precedence, lowest first: defaults, the YAML file, DEVCTL_* environment variables.
// If path is empty, <dir>/.devctl.yaml is used when it exists. An explicit path
// must exist.
func Load(dir, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}

	if err := cfg.loadFromFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, &devctlerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileConfig mirrors Config with pointer fields so unset keys can be told apart
// from zero values.
type fileConfig struct {
	Command          []string          `yaml:"command"`
	Probe            *[]string         `yaml:"probe"`
	Env              map[string]string `yaml:"env"`
	StartupGrace     *time.Duration    `yaml:"startup_grace"`
	StopPollInterval *time.Duration    `yaml:"stop_poll_interval"`
	StopPollAttempts *int              `yaml:"stop_poll_attempts"`
	RestartDelay     *time.Duration    `yaml:"restart_delay"`
	ProbeTimeout     *time.Duration    `yaml:"probe_timeout"`
	TailLines        *int              `yaml:"tail_lines"`
}

// loadFromFile merges a YAML file into the configuration.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(fc.Command) > 0 {
		c.Command = fc.Command
		// The default probe only makes sense for the default command.
		c.Probe = nil
	}
	if fc.Probe != nil {
		c.Probe = *fc.Probe
	}
	if fc.Env != nil {
		c.Env = fc.Env
	}
	if fc.StartupGrace != nil {
		c.StartupGrace = *fc.StartupGrace
	}
	if fc.StopPollInterval != nil {
		c.StopPollInterval = *fc.StopPollInterval
	}
	if fc.StopPollAttempts != nil {
		c.StopPollAttempts = *fc.StopPollAttempts
	}
	if fc.RestartDelay != nil {
		c.RestartDelay = *fc.RestartDelay
	}
	if fc.ProbeTimeout != nil {
		c.ProbeTimeout = *fc.ProbeTimeout
	}
	if fc.TailLines != nil {
		c.TailLines = *fc.TailLines
	}

	return nil
}

// loadFromEnv applies DEVCTL_* environment overrides.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("DEVCTL_COMMAND"); val != "" {
		c.Command = strings.Fields(val)
		c.Probe = nil
	}
	if val, ok := os.LookupEnv("DEVCTL_PROBE"); ok {
		c.Probe = strings.Fields(val)
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"DEVCTL_STARTUP_GRACE", &c.StartupGrace},
		{"DEVCTL_RESTART_DELAY", &c.RestartDelay},
		{"DEVCTL_PROBE_TIMEOUT", &c.ProbeTimeout},
	}
	for _, d := range durations {
		val := os.Getenv(d.key)
		if val == "" {
			continue
		}
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return &devctlerrors.ConfigError{Key: d.key, Reason: "invalid duration", Cause: err}
		}
		*d.target = parsed
	}

	if val := os.Getenv("DEVCTL_STOP_TIMEOUT"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return &devctlerrors.ConfigError{Key: "DEVCTL_STOP_TIMEOUT", Reason: "invalid duration", Cause: err}
		}
		if c.StopPollInterval > 0 {
			attempts := int(timeout / c.StopPollInterval)
			if timeout%c.StopPollInterval != 0 {
				attempts++
			}
			c.StopPollAttempts = attempts
		}
	}

	return nil
}

// Validate checks the configuration for values the lifecycle manager cannot use.
func (c *Config) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return &devctlerrors.ConfigError{Key: "command", Reason: "must not be empty"}
	}
	if c.StartupGrace <= 0 {
		return &devctlerrors.ConfigError{Key: "startup_grace", Reason: "must be positive"}
	}
	if c.StopPollInterval <= 0 {
		return &devctlerrors.ConfigError{Key: "stop_poll_interval", Reason: "must be positive"}
	}
	if c.StopPollAttempts <= 0 {
		return &devctlerrors.ConfigError{Key: "stop_poll_attempts", Reason: "must be positive"}
	}
	if c.RestartDelay < 0 {
		return &devctlerrors.ConfigError{Key: "restart_delay", Reason: "must not be negative"}
	}
	if c.ProbeTimeout <= 0 {
		return &devctlerrors.ConfigError{Key: "probe_timeout", Reason: "must be positive"}
	}
	if c.TailLines < 0 {
		return &devctlerrors.ConfigError{Key: "tail_lines", Reason: "must not be negative"}
	}
	return nil
}

// StopTimeout is the total graceful shutdown window.
func (c *Config) StopTimeout() time.Duration {
	return c.StopPollInterval * time.Duration(c.StopPollAttempts)
}

// Environ returns Env as KEY=VALUE pairs appended to base.
func (c *Config) Environ(base []string) []string {
	env := append([]string(nil), base...)
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}
