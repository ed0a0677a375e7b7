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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEVCTL_COMMAND", "DEVCTL_STARTUP_GRACE", "DEVCTL_RESTART_DELAY",
		"DEVCTL_PROBE_TIMEOUT", "DEVCTL_STOP_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
	// DEVCTL_PROBE is checked with LookupEnv, so it must be truly unset.
	t.Setenv("DEVCTL_PROBE", "")
	os.Unsetenv("DEVCTL_PROBE")
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"npm", "run", "dev"}, cfg.Command)
	assert.Equal(t, []string{"npm", "run", "dev", "--help"}, cfg.Probe)
	assert.Equal(t, 2*time.Second, cfg.StartupGrace)
	assert.Equal(t, time.Second, cfg.StopPollInterval)
	assert.Equal(t, 10, cfg.StopPollAttempts)
	assert.Equal(t, 2*time.Second, cfg.RestartDelay)
	assert.Equal(t, 50, cfg.TailLines)
	assert.Equal(t, 10*time.Second, cfg.StopTimeout())
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `command: [go, run, ./cmd/server]
startup_grace: 500ms
stop_poll_attempts: 3
env:
  PORT: "8080"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "run", "./cmd/server"}, cfg.Command)
	assert.Empty(t, cfg.Probe, "custom command should drop the npm probe")
	assert.Equal(t, 500*time.Millisecond, cfg.StartupGrace)
	assert.Equal(t, 3, cfg.StopPollAttempts)
	assert.Equal(t, time.Second, cfg.StopPollInterval, "unset keys keep defaults")
	assert.Equal(t, map[string]string{"PORT": "8080"}, cfg.Env)
	assert.Contains(t, cfg.Environ([]string{"HOME=/root"}), "PORT=8080")
}

func TestLoad_ExplicitProbe(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "command: [make, dev]\nprobe: [make, -n, dev]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"make", "-n", "dev"}, cfg.Probe)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)

	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cfgErr *devctlerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config_file", cfgErr.Key)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("command: [unclosed"), 0o600))

	_, err := Load(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("startup_grace: 5s\n"), 0o600))

	t.Setenv("DEVCTL_COMMAND", "yarn dev")
	t.Setenv("DEVCTL_STARTUP_GRACE", "1s")
	t.Setenv("DEVCTL_STOP_TIMEOUT", "2500ms")

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"yarn", "dev"}, cfg.Command)
	assert.Empty(t, cfg.Probe)
	assert.Equal(t, time.Second, cfg.StartupGrace)
	assert.Equal(t, 3, cfg.StopPollAttempts, "2.5s at 1s intervals rounds up")
}

func TestLoad_InvalidEnvDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEVCTL_RESTART_DELAY", "soon")

	_, err := Load(t.TempDir(), "")

	var cfgErr *devctlerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "DEVCTL_RESTART_DELAY", cfgErr.Key)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"empty command", func(c *Config) { c.Command = nil }, "command"},
		{"blank executable", func(c *Config) { c.Command = []string{" "} }, "command"},
		{"zero grace", func(c *Config) { c.StartupGrace = 0 }, "startup_grace"},
		{"zero interval", func(c *Config) { c.StopPollInterval = 0 }, "stop_poll_interval"},
		{"zero attempts", func(c *Config) { c.StopPollAttempts = 0 }, "stop_poll_attempts"},
		{"negative restart delay", func(c *Config) { c.RestartDelay = -time.Second }, "restart_delay"},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = 0 }, "probe_timeout"},
		{"negative tail", func(c *Config) { c.TailLines = -1 }, "tail_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *devctlerrors.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}
