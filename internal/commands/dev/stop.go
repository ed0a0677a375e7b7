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

package dev

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/devctl/internal/commands/shared"
	"github.com/tombee/devctl/internal/lifecycle"
)

// NewStopCommand creates the stop command.
func NewStopCommand(factory ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use: "stop",
		Annotations: map[string]string{
			"group": "server",
		},
		Short: "Stop the dev server",
		Long: `Stop the background dev server.

Sends SIGTERM and polls until the process exits. If it is still alive after
the graceful window (10 checks one second apart by default), SIGKILL is sent.

The stop command is idempotent: if the dev server is not running it exits
successfully after cleaning up a stale PID file.`,
		Example: `  # Stop the dev server
  devctl stop

  # Give the server longer to shut down
  DEVCTL_STOP_TIMEOUT=30s devctl stop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, factory)
		},
	}
}

func runStop(cmd *cobra.Command, factory ManagerFactory) error {
	reporter := newConsoleReporter(cmd.OutOrStdout())
	defer reporter.done()

	m, err := factory(cmd, reporter)
	if err != nil {
		return fail(cmd, err)
	}

	result, err := m.Stop(cmd.Context())
	reporter.done()
	if err != nil {
		return fail(cmd, shared.NewFailureError("failed to stop dev server", err))
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), newStopResponse("stop", result))
	}

	renderStop(cmd.OutOrStdout(), result)
	return nil
}

type stopResponse struct {
	shared.JSONResponse
	Outcome string            `json:"outcome"`
	PID     int               `json:"pid,omitempty"`
	Forced  bool              `json:"forced,omitempty"`
	Error   *shared.JSONError `json:"error,omitempty"`
}

func newStopResponse(command string, result *lifecycle.StopResult) stopResponse {
	resp := stopResponse{
		JSONResponse: shared.NewJSONResponse(command, result.Outcome != lifecycle.StopSignalFailed),
		Outcome:      result.Outcome.String(),
		PID:          result.PID,
		Forced:       result.Forced,
	}
	if result.SignalErr != nil {
		resp.Error = &shared.JSONError{
			Code:    shared.ErrorCodeSignalFailed,
			Message: result.SignalErr.Error(),
		}
	}
	return resp
}

func renderStop(w io.Writer, result *lifecycle.StopResult) {
	switch result.Outcome {
	case lifecycle.StopNotRunning:
		fmt.Fprintln(w, shared.RenderError("Dev server is not running"))

	case lifecycle.StopStaleRemoved:
		fmt.Fprintln(w, shared.RenderWarn(fmt.Sprintf("Process %d no longer exists, removed stale PID file", result.PID)))

	case lifecycle.StopSignalFailed:
		fmt.Fprintln(w, shared.RenderError(fmt.Sprintf("Failed to stop dev server (PID: %d): %v", result.PID, result.SignalErr)))
		fmt.Fprintln(w, shared.RenderLabel("  The PID file was kept; check the process owner and retry"))

	case lifecycle.StopStopped:
		if result.Forced {
			fmt.Fprintln(w, shared.RenderOK("Dev server stopped (forced)"))
			return
		}
		fmt.Fprintln(w, shared.RenderOK("Dev server stopped"))
	}
}
