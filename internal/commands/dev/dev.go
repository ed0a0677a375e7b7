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

// Package dev implements the devctl commands that manage the project's dev
// server: start, stop, restart, status and logs.
//
// Commands render lifecycle results; the lifecycle package owns all state
// transitions. Every command runs against the current working directory.
package dev

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/devctl/internal/commands/shared"
	"github.com/tombee/devctl/internal/config"
	"github.com/tombee/devctl/internal/lifecycle"
	devlog "github.com/tombee/devctl/internal/log"
)

// ManagerFactory builds the lifecycle manager for one command invocation.
type ManagerFactory func(cmd *cobra.Command, reporter lifecycle.Reporter) (*lifecycle.Manager, error)

// NewCommands returns the dev server commands wired to factory.
func NewCommands(factory ManagerFactory) []*cobra.Command {
	return []*cobra.Command{
		NewStartCommand(factory),
		NewStopCommand(factory),
		NewRestartCommand(factory),
		NewStatusCommand(factory),
		NewLogsCommand(factory),
	}
}

// DefaultManagerFactory composes a Manager from host collaborators and the
// configuration of the current working directory.
func DefaultManagerFactory(cmd *cobra.Command, reporter lifecycle.Reporter) (*lifecycle.Manager, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(dir, shared.GetConfigPath())
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr()).With(slog.String("command", cmd.Name()))
	logger.Debug("configuration loaded",
		slog.Any("command", cfg.Command),
		slog.Duration("startup_grace", cfg.StartupGrace),
		slog.Duration("stop_timeout", cfg.StopTimeout()))

	var env []string
	if len(cfg.Env) > 0 {
		env = cfg.Environ(os.Environ())
	}

	prober := lifecycle.NewExecProber(dir, cfg.ProbeTimeout)
	prober.Env = env

	return lifecycle.NewManager(lifecycle.ManagerOptions{
		Dir:        dir,
		Command:    cfg.Command,
		Probe:      cfg.Probe,
		Env:        env,
		FS:         lifecycle.NewOSFileSystem(),
		Procs:      lifecycle.NewOSProcessController(),
		Launcher:   lifecycle.NewSpawner(),
		Prober:     prober,
		StartTimer: lifecycle.NewStartTimer(),
		Follower:   lifecycle.NewFileFollower().WithLogger(logger),
		Reporter:   reporter,
		Logger:     logger,
		Timing: lifecycle.Timing{
			StartupGrace:     cfg.StartupGrace,
			StopPollInterval: cfg.StopPollInterval,
			StopPollAttempts: cfg.StopPollAttempts,
			RestartDelay:     cfg.RestartDelay,
			TailLines:        cfg.TailLines,
		},
	})
}

// newLogger builds the diagnostics logger for one invocation.
func newLogger(w io.Writer) *slog.Logger {
	cfg := devlog.FromEnv()
	cfg.Output = w
	if shared.GetVerbose() {
		cfg.Level = "debug"
	}
	return devlog.WithCorrelationID(devlog.New(cfg), "")
}

// fail reports err as JSON when --json is set, otherwise returns it for
// HandleExitError to print.
func fail(cmd *cobra.Command, err error) error {
	if shared.GetJSON() {
		return shared.EmitJSONError(cmd.OutOrStdout(), cmd.Name(), err)
	}
	return err
}
