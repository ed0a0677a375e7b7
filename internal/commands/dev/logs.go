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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/devctl/internal/commands/shared"
	"github.com/tombee/devctl/internal/lifecycle"
)

// NewLogsCommand creates the logs command.
func NewLogsCommand(factory ManagerFactory) *cobra.Command {
	return &cobra.Command{
		Use: "logs",
		Annotations: map[string]string{
			"group": "server",
		},
		Short: "Follow the dev server log",
		Long: `Print the last lines of logs/dev.log and follow new output.

Press Ctrl+C to stop following; the dev server keeps running.`,
		Example: `  # Follow the dev server log
  devctl logs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLogs(ctx, cmd, factory)
		},
	}
}

func runLogs(ctx context.Context, cmd *cobra.Command, factory ManagerFactory) error {
	m, err := factory(cmd, lifecycle.NopReporter{})
	if err != nil {
		return fail(cmd, err)
	}

	out := cmd.OutOrStdout()
	exists, err := m.LogExists()
	if err != nil {
		return shared.NewFailureError("failed to show logs", err)
	}
	if !exists {
		return reportMissingLog(cmd)
	}

	if !shared.GetQuiet() {
		fmt.Fprintln(out, shared.RenderInfo("Following dev server log (Ctrl+C to exit):"))
		fmt.Fprintln(out, shared.Muted.Render(strings.Repeat("─", 50)))
	}

	err = m.Logs(ctx, out)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, lifecycle.ErrLogFileNotFound):
		return reportMissingLog(cmd)

	case errors.Is(err, lifecycle.ErrFollowUnavailable):
		fmt.Fprintln(out, shared.RenderError(fmt.Sprintf("Unable to follow log: %v", err)))
		fmt.Fprintln(out, shared.RenderLabel("  Inspect the log file manually: "+m.LogPath()))
		return nil

	default:
		return shared.NewFailureError("failed to show logs", err)
	}
}

func reportMissingLog(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, shared.RenderError("Log file does not exist"))
	fmt.Fprintln(out, shared.RenderLabel("  Start the dev server first: devctl start"))
	return nil
}
