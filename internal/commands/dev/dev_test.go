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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/devctl/internal/cli"
	"github.com/tombee/devctl/internal/commands/shared"
	"github.com/tombee/devctl/internal/lifecycle"
	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

const workDir = "/work/app"

type instantClock struct{}

func (instantClock) Now() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// stubProcs kills a process on the first signal it receives.
type stubProcs struct {
	mu    sync.Mutex
	alive map[int]bool
}

func (p *stubProcs) IsRunning(pid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive[pid]
}

func (p *stubProcs) Signal(pid int, _ syscall.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive[pid] {
		return lifecycle.ErrProcessNotRunning
	}
	delete(p.alive, pid)
	return nil
}

type stubLauncher struct {
	procs   *stubProcs
	nextPID int
	calls   int
}

func (l *stubLauncher) Launch(context.Context, lifecycle.LaunchSpec) (int, error) {
	l.calls++
	pid := l.nextPID
	l.nextPID++
	l.procs.mu.Lock()
	l.procs.alive[pid] = true
	l.procs.mu.Unlock()
	return pid, nil
}

type stubProber struct {
	err error
}

func (p stubProber) Probe(context.Context, []string, []string) error { return p.err }

type stubFollower struct {
	output string
	err    error
}

func (f stubFollower) Follow(_ context.Context, _ string, _ int, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.output)
	return err
}

type testEnv struct {
	fs       lifecycle.FileSystem
	procs    *stubProcs
	launcher *stubLauncher
	prober   stubProber
	follower stubFollower
	status   lifecycle.StartTimer
}

func newTestEnv() *testEnv {
	procs := &stubProcs{alive: make(map[int]bool)}
	return &testEnv{
		fs:       lifecycle.NewMemFileSystem(),
		procs:    procs,
		launcher: &stubLauncher{procs: procs, nextPID: 7000},
	}
}

func (e *testEnv) factory(_ *cobra.Command, reporter lifecycle.Reporter) (*lifecycle.Manager, error) {
	return lifecycle.NewManager(lifecycle.ManagerOptions{
		Dir:        workDir,
		Command:    []string{"npm", "run", "dev"},
		FS:         e.fs,
		Procs:      e.procs,
		Launcher:   e.launcher,
		Prober:     e.prober,
		StartTimer: e.status,
		Clock:      instantClock{},
		Follower:   e.follower,
		Reporter:   reporter,
	})
}

func (e *testEnv) seedPID(t *testing.T, pid int, alive bool) {
	t.Helper()
	require.NoError(t, e.fs.MkdirAll(lifecycle.LogsDir(workDir)))
	require.NoError(t, lifecycle.NewPIDFile(e.fs, lifecycle.PIDPath(workDir)).Write(pid))
	if alive {
		e.procs.alive[pid] = true
	}
}

func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(shared.ResetFlagsForTest)

	root := cli.NewRootCommand()
	root.AddCommand(NewCommands(e.factory)...)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStartCommand(t *testing.T) {
	t.Run("starts the dev server", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "start")
		require.NoError(t, err)

		assert.Contains(t, out, "Starting dev server...")
		assert.Contains(t, out, "Dev server started")
		assert.Contains(t, out, "7000")
		assert.Contains(t, out, lifecycle.LogPath(workDir))
		assert.Contains(t, out, "devctl logs")

		pid, ok, err := lifecycle.NewPIDFile(env.fs, lifecycle.PIDPath(workDir)).Read()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7000, pid)
	})

	t.Run("reports an already running server", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, true)

		out, err := env.execute(t, "start")
		require.NoError(t, err)

		assert.Contains(t, out, "Dev server is already running (PID: 4242)")
		assert.Contains(t, out, "devctl stop")
		assert.Zero(t, env.launcher.calls)
	})

	t.Run("reports an unavailable command", func(t *testing.T) {
		env := newTestEnv()
		env.prober.err = &devctlerrors.SetupError{
			Command: "npm run dev",
			Hint:    `Make sure package.json defines a "dev" script`,
		}

		out, err := env.execute(t, "start")
		require.NoError(t, err)

		assert.Contains(t, out, "npm run dev command not found")
		assert.Contains(t, out, `package.json defines a "dev" script`)
		assert.Zero(t, env.launcher.calls)
	})

	t.Run("quiet omits the command hints", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "start", "--quiet")
		require.NoError(t, err)

		assert.Contains(t, out, "Dev server started")
		assert.NotContains(t, out, "Starting dev server...")
		assert.NotContains(t, out, "devctl logs")
	})

	t.Run("json output", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "start", "--json")
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "start", resp["command"])
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "started", resp["outcome"])
		assert.Equal(t, float64(7000), resp["pid"])
	})

	t.Run("storage failure exits non-zero", func(t *testing.T) {
		env := newTestEnv()
		env.fs = lifecycle.NewAferoFileSystem(afero.NewReadOnlyFs(afero.NewMemMapFs()))

		_, err := env.execute(t, "start")
		require.Error(t, err)
		assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))

		var storageErr *devctlerrors.StorageError
		assert.ErrorAs(t, err, &storageErr)
	})

	t.Run("storage failure as json", func(t *testing.T) {
		env := newTestEnv()
		env.fs = lifecycle.NewAferoFileSystem(afero.NewReadOnlyFs(afero.NewMemMapFs()))

		out, err := env.execute(t, "start", "--json")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrReported)

		var resp struct {
			Success bool               `json:"success"`
			Errors  []shared.JSONError `json:"errors"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.False(t, resp.Success)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, shared.ErrorCodeStorage, resp.Errors[0].Code)
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.execute(t, "start", "now")
		assert.Error(t, err)
		assert.Zero(t, env.launcher.calls)
	})
}

func TestStopCommand(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "stop")
		require.NoError(t, err)
		assert.Contains(t, out, "Dev server is not running")
	})

	t.Run("stale PID file", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, false)

		out, err := env.execute(t, "stop")
		require.NoError(t, err)

		assert.Contains(t, out, "Process 4242 no longer exists, removed stale PID file")
		exists, err := env.fs.Exists(lifecycle.PIDPath(workDir))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("stops running server", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, true)

		out, err := env.execute(t, "stop")
		require.NoError(t, err)

		assert.Contains(t, out, "Stopping dev server (PID: 4242)...")
		assert.Contains(t, out, "Dev server stopped")
		assert.False(t, env.procs.IsRunning(4242))

		log, err := env.fs.ReadFile(lifecycle.LogPath(workDir))
		require.NoError(t, err)
		assert.Contains(t, string(log), "dev server stopped manually")
	})
}

func TestRestartCommand(t *testing.T) {
	env := newTestEnv()
	env.seedPID(t, 4242, true)

	out, err := env.execute(t, "restart")
	require.NoError(t, err)

	assert.Contains(t, out, "Restarting dev server...")
	assert.Contains(t, out, "Dev server stopped")
	assert.Contains(t, out, "Dev server started")
	assert.False(t, env.procs.IsRunning(4242))
	assert.True(t, env.procs.IsRunning(7000))
}

type fixedStartTimer time.Time

func (s fixedStartTimer) StartTime(context.Context, int) (time.Time, error) {
	return time.Time(s), nil
}

func TestStatusCommand(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Dev server is not running")
		assert.NotContains(t, out, "stale")
	})

	t.Run("stale PID file", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, false)

		out, err := env.execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Dev server is not running")
		assert.Contains(t, out, "Removed stale PID file (process 4242 no longer exists)")
	})

	t.Run("running with uptime", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, true)
		env.status = fixedStartTimer(instantClock{}.Now().Add(-90 * time.Minute))

		out, err := env.execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Dev server is running")
		assert.Contains(t, out, "4242")
		assert.Contains(t, out, "01:30:00")
	})

	t.Run("json output", func(t *testing.T) {
		env := newTestEnv()
		env.seedPID(t, 4242, true)

		out, err := env.execute(t, "status", "--json")
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, shared.JSONVersion, resp["@version"])
		assert.Equal(t, "status", resp["command"])
		assert.Equal(t, true, resp["running"])
		assert.Equal(t, float64(4242), resp["pid"])
		assert.Equal(t, lifecycle.LogPath(workDir), resp["log_path"])
	})
}

func TestLogsCommand(t *testing.T) {
	t.Run("missing log file", func(t *testing.T) {
		env := newTestEnv()

		out, err := env.execute(t, "logs")
		require.NoError(t, err)
		assert.Contains(t, out, "Log file does not exist")
		assert.Contains(t, out, "devctl start")
		assert.NotContains(t, out, "Following")
	})

	t.Run("follows the log", func(t *testing.T) {
		env := newTestEnv()
		require.NoError(t, env.fs.MkdirAll(lifecycle.LogsDir(workDir)))
		require.NoError(t, env.fs.AppendFile(lifecycle.LogPath(workDir), []byte("ready\n")))
		env.follower.output = "ready\n"

		out, err := env.execute(t, "logs")
		require.NoError(t, err)
		assert.Contains(t, out, "Following dev server log (Ctrl+C to exit):")
		assert.Contains(t, out, "ready\n")
	})

	t.Run("follow unavailable", func(t *testing.T) {
		env := newTestEnv()
		require.NoError(t, env.fs.MkdirAll(lifecycle.LogsDir(workDir)))
		require.NoError(t, env.fs.AppendFile(lifecycle.LogPath(workDir), []byte("ready\n")))
		env.follower.err = fmt.Errorf("%w: inotify limit reached", lifecycle.ErrFollowUnavailable)

		out, err := env.execute(t, "logs")
		require.NoError(t, err)
		assert.Contains(t, out, "Unable to follow log")
		assert.Contains(t, out, "Inspect the log file manually: "+lifecycle.LogPath(workDir))
	})

	t.Run("unexpected follow error", func(t *testing.T) {
		env := newTestEnv()
		require.NoError(t, env.fs.MkdirAll(lifecycle.LogsDir(workDir)))
		require.NoError(t, env.fs.AppendFile(lifecycle.LogPath(workDir), []byte("ready\n")))
		env.follower.err = errors.New("read failed")

		_, err := env.execute(t, "logs")
		assert.ErrorContains(t, err, "failed to show logs")
	})
}
