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
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tombee/devctl/internal/commands/shared"
	"github.com/tombee/devctl/internal/lifecycle"
	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// NewStartCommand creates the start command.
func NewStartCommand(factory ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use: "start",
		Annotations: map[string]string{
			"group": "server",
		},
		Short: "Start the dev server in the background",
		Long: `Start the project's dev server as a detached background process.

Output is appended to logs/dev.log and the process id is recorded in
logs/dev.pid. The start command is idempotent: if the dev server is already
running it reports the existing process and starts nothing.`,
		Example: `  # Start the dev server
  devctl start

  # Start and print the result as JSON
  devctl start --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, factory)
		},
	}
}

func runStart(cmd *cobra.Command, factory ManagerFactory) error {
	reporter := newConsoleReporter(cmd.OutOrStdout())
	defer reporter.done()

	m, err := factory(cmd, reporter)
	if err != nil {
		return fail(cmd, err)
	}

	result, err := m.Start(cmd.Context())
	reporter.done()
	if err != nil {
		return fail(cmd, shared.NewFailureError("failed to start dev server", err))
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), newStartResponse(result))
	}

	renderStart(cmd.OutOrStdout(), result)
	return nil
}

type startResponse struct {
	shared.JSONResponse
	Outcome  string            `json:"outcome"`
	PID      int               `json:"pid,omitempty"`
	LogPath  string            `json:"log_path,omitempty"`
	StalePID int               `json:"stale_pid,omitempty"`
	Error    *shared.JSONError `json:"error,omitempty"`
}

func newStartResponse(result *lifecycle.StartResult) startResponse {
	ok := result.Outcome == lifecycle.StartStarted || result.Outcome == lifecycle.StartAlreadyRunning
	resp := startResponse{
		JSONResponse: shared.NewJSONResponse("start", ok),
		Outcome:      result.Outcome.String(),
		PID:          result.PID,
		LogPath:      result.LogPath,
		StalePID:     result.StalePID,
	}
	if result.SetupErr != nil {
		jsonErr := shared.NewJSONError(result.SetupErr)
		resp.Error = &jsonErr
	}
	return resp
}

func renderStart(w io.Writer, result *lifecycle.StartResult) {
	if result.StalePID != 0 && !shared.GetQuiet() {
		fmt.Fprintln(w, shared.RenderInfo(fmt.Sprintf("Removed stale PID file (process %d no longer exists)", result.StalePID)))
	}

	switch result.Outcome {
	case lifecycle.StartAlreadyRunning:
		fmt.Fprintln(w, shared.RenderError(fmt.Sprintf("Dev server is already running (PID: %d)", result.PID)))
		fmt.Fprintln(w, shared.RenderLabel("  Use 'devctl stop' to stop it"))

	case lifecycle.StartCommandUnavailable:
		message := "Dev server command is not available"
		suggestion := ""
		var setupErr *devctlerrors.SetupError
		if errors.As(result.SetupErr, &setupErr) {
			message = setupErr.UserMessage()
			suggestion = setupErr.Suggestion()
		}
		fmt.Fprintln(w, shared.RenderError(message))
		if suggestion != "" {
			fmt.Fprintln(w, shared.RenderLabel("  "+suggestion))
		}

	case lifecycle.StartExitedEarly:
		fmt.Fprintln(w, shared.RenderError("Dev server failed to start"))
		fmt.Fprintln(w, shared.RenderLabel("  Check the log file: "+result.LogPath))

	case lifecycle.StartStarted:
		fmt.Fprintln(w, shared.RenderOK("Dev server started"))
		fmt.Fprintln(w, shared.RenderField("PID", fmt.Sprint(result.PID)))
		fmt.Fprintln(w, shared.RenderField("Log file", result.LogPath))
		if shared.GetQuiet() {
			return
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		fmt.Fprintln(w, "  devctl stop     Stop the server")
		fmt.Fprintln(w, "  devctl status   Show server status")
		fmt.Fprintln(w, "  devctl logs     Follow server output")
	}
}
