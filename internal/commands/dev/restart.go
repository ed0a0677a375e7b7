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
	"github.com/spf13/cobra"

	"github.com/tombee/devctl/internal/commands/shared"
)

// NewRestartCommand creates the restart command.
func NewRestartCommand(factory ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use: "restart",
		Annotations: map[string]string{
			"group": "server",
		},
		Short: "Restart the dev server",
		Long: `Restart the dev server by stopping and starting it.

This is equivalent to running 'devctl stop' followed by 'devctl start', with
a short pause in between so ports and file handles are released. If the dev
server is not running it is simply started.`,
		Example: `  # Restart the dev server
  devctl restart`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(cmd, factory)
		},
	}
}

type restartResponse struct {
	shared.JSONResponse
	Stop  stopResponse   `json:"stop"`
	Start *startResponse `json:"start,omitempty"`
}

func runRestart(cmd *cobra.Command, factory ManagerFactory) error {
	reporter := newConsoleReporter(cmd.OutOrStdout())
	defer reporter.done()

	m, err := factory(cmd, reporter)
	if err != nil {
		return fail(cmd, err)
	}

	result, err := m.Restart(cmd.Context())
	reporter.done()
	if result != nil && result.Stop != nil && !shared.GetJSON() {
		renderStop(cmd.OutOrStdout(), result.Stop)
	}
	if err != nil {
		return fail(cmd, shared.NewFailureError("failed to restart dev server", err))
	}

	if shared.GetJSON() {
		started := newStartResponse(result.Start)
		return shared.EmitJSON(cmd.OutOrStdout(), restartResponse{
			JSONResponse: shared.NewJSONResponse("restart", started.Success),
			Stop:         newStopResponse("stop", result.Stop),
			Start:        &started,
		})
	}

	renderStart(cmd.OutOrStdout(), result.Start)
	return nil
}

