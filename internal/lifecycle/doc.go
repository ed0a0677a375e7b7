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

/*
Package lifecycle manages the dev server process for a project directory.

It provides the PID store, liveness probing and signalling, detached process
spawning, lifecycle banners, log following, and the Manager that composes
them into start, stop, restart, status and logs operations.

# Layout

Everything lives under <project>/logs, created on demand:

	logs/dev.pid   single-line decimal pid of the managed process
	logs/dev.log   append-only; banners plus the child's stdout/stderr

The PID file is the single source of truth. A record may point at a process
that has since exited; every query re-checks liveness and removes stale
records.

# File Access

All reads and writes of state files go through FileSystem so the Manager can
run against the host filesystem or an in-memory one:

	fs := lifecycle.NewOSFileSystem()
	pids := lifecycle.NewPIDFile(fs, lifecycle.PIDPath(dir))
	pid, ok, err := pids.Read()

# Manager

Collaborators are injected explicitly:

	m, err := lifecycle.NewManager(lifecycle.ManagerOptions{
	    Dir:      dir,
	    Command:  []string{"npm", "run", "dev"},
	    FS:       lifecycle.NewOSFileSystem(),
	    Procs:    lifecycle.NewOSProcessController(),
	    Launcher: lifecycle.NewSpawner(),
	    Prober:   lifecycle.NewExecProber(dir, 30*time.Second),
	    Follower: lifecycle.NewFileFollower(),
	})
	result, err := m.Start(ctx)

# Known Limitation

The PID file is not locked across the check-then-write sequence in Start.
Two concurrent start invocations can both observe "not running" and spawn
two children, leaving only the second pid recorded.
*/
package lifecycle
