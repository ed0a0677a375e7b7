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

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// LaunchSpec describes the process to spawn.
type LaunchSpec struct {
	// Command is the executable name or path.
	Command string

	// Args are passed to Command.
	Args []string

	// Dir is the working directory of the child.
	Dir string

	// LogPath receives the child's stdout and stderr in append mode.
	LogPath string

	// Env is the child's environment. Nil inherits the Spawner's.
	Env []string
}

// Launcher starts detached background processes.
type Launcher interface {
	// Launch starts the process and returns its pid without waiting for it
	// to initialize.
	Launch(ctx context.Context, spec LaunchSpec) (int, error)
}

// Spawner handles detached process spawning.
type Spawner struct {
	// Env is the default environment passed to children.
	Env []string
}

// NewSpawner creates a new process spawner inheriting the current environment.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// WithEnv sets the default environment for spawned processes.
func (s *Spawner) WithEnv(env []string) *Spawner {
	s.Env = env
	return s
}

// Launch spawns a detached background process.
// The process:
// - Has a new session ID, so it survives the CLI exiting and its terminal closing
// - Has stdin connected to the null device
// - Has stdout/stderr appended to spec.LogPath
//
// Returns the PID of the spawned process.
func (s *Spawner) Launch(ctx context.Context, spec LaunchSpec) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	// The child holds its own descriptor after Start.
	defer logFile.Close()

	// exec.Command rather than CommandContext: cancelling ctx must not kill
	// a process that is meant to outlive us.
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	if cmd.Env == nil {
		cmd.Env = s.Env
	}
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	pid := cmd.Process.Pid

	// Reap in the background while this process lives, so an early exit is
	// seen as ESRCH instead of a lingering zombie. Once we exit the child is
	// re-parented and keeps running.
	go func() {
		_ = cmd.Wait()
	}()

	return pid, nil
}
