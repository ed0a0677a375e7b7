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
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// CommandProber verifies that the dev server command can be invoked before
// anything is spawned.
type CommandProber interface {
	// Probe returns a *errors.SetupError when command is not invocable.
	// probe, when non-empty, is a dry-run invocation that must exit zero.
	Probe(ctx context.Context, command, probe []string) error
}

// ExecProber probes commands on the host.
type ExecProber struct {
	// Dir is the working directory for the dry run.
	Dir string

	// Timeout bounds the dry run.
	Timeout time.Duration

	// Env is the environment of the dry run. Nil inherits ours.
	Env []string

	lookPath func(string) (string, error)
}

// NewExecProber creates a prober running dry runs in dir.
func NewExecProber(dir string, timeout time.Duration) *ExecProber {
	return &ExecProber{
		Dir:      dir,
		Timeout:  timeout,
		lookPath: exec.LookPath,
	}
}

// Probe checks the executable is on PATH and runs the dry-run command.
func (p *ExecProber) Probe(ctx context.Context, command, probe []string) error {
	if len(command) == 0 {
		return &devctlerrors.SetupError{Hint: "Configure a dev server command in .devctl.yaml"}
	}

	lookPath := p.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	display := strings.Join(command, " ")
	if _, err := lookPath(command[0]); err != nil {
		return &devctlerrors.SetupError{Command: display, Hint: setupHint(command), Cause: err}
	}

	if len(probe) == 0 {
		return nil
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, probe[0], probe[1:]...)
	cmd.Dir = p.Dir
	cmd.Env = p.Env
	// Grandchildren holding the output pipe must not outlive the timeout.
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("probe timed out after %v", p.Timeout)
		} else if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			err = fmt.Errorf("%w: %s", err, lastLine(trimmed))
		}
		return &devctlerrors.SetupError{Command: display, Hint: setupHint(command), Cause: err}
	}

	return nil
}

// setupHint returns guidance for making command available.
func setupHint(command []string) string {
	if filepath.Base(command[0]) == "npm" && len(command) >= 3 && command[1] == "run" {
		return fmt.Sprintf("Make sure package.json defines a %q script", command[2])
	}
	return fmt.Sprintf("Make sure %q is installed and on your PATH, or set command in .devctl.yaml", command[0])
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
