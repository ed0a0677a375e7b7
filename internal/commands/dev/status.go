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

// NewStatusCommand creates the status command.
func NewStatusCommand(factory ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use: "status",
		Annotations: map[string]string{
			"group": "server",
		},
		Short: "Show whether the dev server is running",
		Long: `Display the process id, log file and uptime of the dev server.

A PID file that points at a process which no longer exists is removed.`,
		Example: `  # Check the dev server
  devctl status

  # Extract the PID
  devctl status --json | jq -r '.pid'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, factory)
		},
	}
}

type statusResponse struct {
	shared.JSONResponse
	*lifecycle.Status
}

func runStatus(cmd *cobra.Command, factory ManagerFactory) error {
	m, err := factory(cmd, lifecycle.NopReporter{})
	if err != nil {
		return fail(cmd, err)
	}

	status, err := m.Status(cmd.Context())
	if err != nil {
		return fail(cmd, shared.NewFailureError("failed to query dev server status", err))
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), statusResponse{
			JSONResponse: shared.NewJSONResponse("status", true),
			Status:       status,
		})
	}

	renderStatus(cmd.OutOrStdout(), status)
	return nil
}

func renderStatus(w io.Writer, status *lifecycle.Status) {
	if !status.Running {
		fmt.Fprintln(w, shared.RenderError("Dev server is not running"))
		if status.StaleRemoved {
			fmt.Fprintln(w, shared.RenderInfo(fmt.Sprintf("Removed stale PID file (process %d no longer exists)", status.PID)))
		}
		return
	}

	fmt.Fprintln(w, shared.RenderOK("Dev server is running"))
	fmt.Fprintln(w, shared.RenderField("PID", fmt.Sprint(status.PID)))
	fmt.Fprintln(w, shared.RenderField("Log file", status.LogPath))
	if status.Uptime != "" {
		fmt.Fprintln(w, shared.RenderField("Uptime", status.Uptime))
	}
}
