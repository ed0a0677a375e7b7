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

	"github.com/tombee/devctl/internal/commands/shared"
)

// consoleReporter shows lifecycle progress while the manager waits.
type consoleReporter struct {
	out     io.Writer
	spinner *shared.Spinner
	silent  bool
}

func newConsoleReporter(w io.Writer) *consoleReporter {
	return &consoleReporter{
		out:     w,
		spinner: shared.NewSpinner(w),
		silent:  shared.GetQuiet() || shared.GetJSON(),
	}
}

func (r *consoleReporter) Starting() {
	if r.silent {
		return
	}
	r.spinner.Stop()
	r.spinner.Start("Starting dev server...")
}

func (r *consoleReporter) Stopping(pid int) {
	if r.silent {
		return
	}
	r.spinner.Stop()
	r.spinner.Start(fmt.Sprintf("Stopping dev server (PID: %d)...", pid))
}

func (r *consoleReporter) ForceStopping(pid int) {
	if r.silent {
		return
	}
	r.spinner.Stop()
	fmt.Fprintln(r.out, shared.RenderWarn(fmt.Sprintf("Process %d did not exit in time, forcing stop...", pid)))
}

func (r *consoleReporter) Restarting() {
	if r.silent {
		return
	}
	fmt.Fprintln(r.out, shared.RenderInfo("Restarting dev server..."))
}

// done clears any active spinner before results are printed.
func (r *consoleReporter) done() {
	r.spinner.Stop()
}
