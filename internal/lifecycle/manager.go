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
	"io"
	"log/slog"
	"syscall"
	"time"

	devlog "github.com/tombee/devctl/internal/log"
	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// ErrLogFileNotFound is returned by Logs when nothing has been logged yet.
var ErrLogFileNotFound = errors.New("log file does not exist")

// Timing holds the fixed waits of the lifecycle operations.
type Timing struct {
	// StartupGrace is the wait between spawning and re-checking liveness.
	StartupGrace time.Duration

	// StopPollInterval is the delay between liveness checks after SIGTERM.
	StopPollInterval time.Duration

	// StopPollAttempts bounds the graceful window before SIGKILL.
	StopPollAttempts int

	// RestartDelay separates the stop and start halves of a restart.
	RestartDelay time.Duration

	// TailLines is the number of existing log lines shown before following.
	TailLines int
}

// DefaultTiming returns the standard waits: 2s grace, 10x1s stop polling,
// 2s restart pause, 50 tail lines.
func DefaultTiming() Timing {
	return Timing{
		StartupGrace:     2 * time.Second,
		StopPollInterval: time.Second,
		StopPollAttempts: 10,
		RestartDelay:     2 * time.Second,
		TailLines:        50,
	}
}

// ManagerOptions wires the collaborators of a Manager.
type ManagerOptions struct {
	// Dir is the project directory. State lives in Dir/logs.
	Dir string

	// Command is the dev server argv.
	Command []string

	// Probe is the dry-run argv checked before spawning. Optional.
	Probe []string

	// Env is the dev server environment. Nil inherits the launcher's.
	Env []string

	FS       FileSystem
	Procs    ProcessController
	Launcher Launcher
	Prober   CommandProber

	// StartTimer is optional; without it Status omits uptime.
	StartTimer StartTimer

	// Clock defaults to RealClock.
	Clock Clock

	// Follower is required by Logs only.
	Follower Follower

	// Reporter receives progress notices. Defaults to a no-op.
	Reporter Reporter

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Timing defaults to DefaultTiming when zero.
	Timing Timing
}

// Reporter is notified while lifecycle operations make progress, so a CLI can
// print status before a long wait completes.
type Reporter interface {
	// Starting is called after the running check, before the probe.
	Starting()

	// Stopping is called before the graceful signal is sent.
	Stopping(pid int)

	// ForceStopping is called before the forceful signal is sent.
	ForceStopping(pid int)

	// Restarting is called at the beginning of Restart.
	Restarting()
}

// NopReporter ignores all notices.
type NopReporter struct{}

func (NopReporter) Starting()         {}
func (NopReporter) Stopping(int)      {}
func (NopReporter) ForceStopping(int) {}
func (NopReporter) Restarting()       {}

// Manager runs lifecycle operations for one project directory.
type Manager struct {
	dir        string
	command    []string
	probe      []string
	env        []string
	fs         FileSystem
	pidFile    *PIDFile
	events     *LifecycleLog
	procs      ProcessController
	launcher   Launcher
	prober     CommandProber
	startTimer StartTimer
	clock      Clock
	follower   Follower
	reporter   Reporter
	logger     *slog.Logger
	timing     Timing
}

// NewManager validates opts and builds a Manager.
func NewManager(opts ManagerOptions) (*Manager, error) {
	switch {
	case opts.Dir == "":
		return nil, errors.New("lifecycle: project directory is required")
	case len(opts.Command) == 0:
		return nil, errors.New("lifecycle: command is required")
	case opts.FS == nil:
		return nil, errors.New("lifecycle: file system is required")
	case opts.Procs == nil:
		return nil, errors.New("lifecycle: process controller is required")
	case opts.Launcher == nil:
		return nil, errors.New("lifecycle: launcher is required")
	case opts.Prober == nil:
		return nil, errors.New("lifecycle: command prober is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = devlog.Discard()
	}
	timing := opts.Timing
	if timing == (Timing{}) {
		timing = DefaultTiming()
	}

	return &Manager{
		dir:        opts.Dir,
		command:    opts.Command,
		probe:      opts.Probe,
		env:        opts.Env,
		fs:         opts.FS,
		pidFile:    NewPIDFile(opts.FS, PIDPath(opts.Dir)),
		events:     NewLifecycleLog(opts.FS, LogPath(opts.Dir), clock),
		procs:      opts.Procs,
		launcher:   opts.Launcher,
		prober:     opts.Prober,
		startTimer: opts.StartTimer,
		clock:      clock,
		follower:   opts.Follower,
		reporter:   reporter,
		logger:     devlog.WithComponent(logger, "lifecycle").With(slog.String(devlog.DirKey, opts.Dir)),
		timing:     timing,
	}, nil
}

// Dir returns the project directory.
func (m *Manager) Dir() string { return m.dir }

// LogPath returns the dev server log path.
func (m *Manager) LogPath() string { return LogPath(m.dir) }

// PIDPath returns the PID file path.
func (m *Manager) PIDPath() string { return m.pidFile.Path() }

// StartOutcome classifies the result of Start.
type StartOutcome int

const (
	// StartStarted means a new process was spawned and survived the grace period.
	StartStarted StartOutcome = iota
	// StartAlreadyRunning means a live process was already recorded.
	StartAlreadyRunning
	// StartCommandUnavailable means the probe failed and nothing was spawned.
	StartCommandUnavailable
	// StartExitedEarly means the process died during the grace period.
	StartExitedEarly
)

func (o StartOutcome) String() string {
	switch o {
	case StartStarted:
		return "started"
	case StartAlreadyRunning:
		return "already_running"
	case StartCommandUnavailable:
		return "command_unavailable"
	case StartExitedEarly:
		return "exited_early"
	default:
		return fmt.Sprintf("StartOutcome(%d)", int(o))
	}
}

// StartResult describes what Start did.
type StartResult struct {
	Outcome StartOutcome

	// PID is the new process, or the existing one for StartAlreadyRunning.
	PID int

	LogPath string

	// StalePID is set when a dead record was removed before starting.
	StalePID int

	// SetupErr explains StartCommandUnavailable.
	SetupErr error
}

// Start launches the dev server unless it is already running.
func (m *Manager) Start(ctx context.Context) (*StartResult, error) {
	result := &StartResult{LogPath: m.LogPath()}

	existing, ok, err := m.pidFile.Read()
	if err != nil {
		return nil, err
	}
	if ok {
		if m.procs.IsRunning(existing) {
			m.logger.Info("dev server already running", devlog.EventKey, "already_running", devlog.PIDKey, existing)
			result.Outcome = StartAlreadyRunning
			result.PID = existing
			return result, nil
		}

		m.logger.Info("removing stale pid file", devlog.EventKey, "stale_pid", devlog.PIDKey, existing)
		if err := m.pidFile.Remove(); err != nil {
			return nil, err
		}
		result.StalePID = existing
	}

	if err := m.fs.MkdirAll(LogsDir(m.dir)); err != nil {
		return nil, &devctlerrors.StorageError{Op: "create", Path: LogsDir(m.dir), Cause: err}
	}

	m.reporter.Starting()

	if err := m.prober.Probe(ctx, m.command, m.probe); err != nil {
		var setupErr *devctlerrors.SetupError
		if !errors.As(err, &setupErr) {
			return nil, fmt.Errorf("failed to probe dev server command: %w", err)
		}
		m.logger.Warn("dev server command unavailable", devlog.EventKey, "probe_failed", devlog.Error(err))
		result.Outcome = StartCommandUnavailable
		result.SetupErr = err
		return result, nil
	}

	pid, err := m.launcher.Launch(ctx, LaunchSpec{
		Command: m.command[0],
		Args:    m.command[1:],
		Dir:     m.dir,
		LogPath: m.LogPath(),
		Env:     m.env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to spawn dev server: %w", err)
	}
	logger := devlog.WithProcess(m.logger, pid)
	logger.Debug("dev server spawned", devlog.EventKey, "spawned")

	if err := m.pidFile.Write(pid); err != nil {
		// Nothing would track the child; do not leave it orphaned.
		if sigErr := m.procs.Signal(pid, syscall.SIGTERM); sigErr != nil {
			logger.Warn("failed to terminate untracked dev server", devlog.Error(sigErr))
		}
		return nil, err
	}

	if err := m.events.LogStart(m.dir, pid); err != nil {
		return nil, err
	}

	if err := m.clock.Sleep(ctx, m.timing.StartupGrace); err != nil {
		return nil, err
	}

	result.PID = pid
	if !m.procs.IsRunning(pid) {
		logger.Warn("dev server exited during startup", devlog.EventKey, "start_failure")
		if err := m.pidFile.Remove(); err != nil {
			return nil, err
		}
		result.Outcome = StartExitedEarly
		return result, nil
	}

	logger.Info("dev server started", devlog.EventKey, "start_success")
	result.Outcome = StartStarted
	return result, nil
}

// StopOutcome classifies the result of Stop.
type StopOutcome int

const (
	// StopNotRunning means no PID record existed.
	StopNotRunning StopOutcome = iota
	// StopStaleRemoved means the record pointed at a dead process and was removed.
	StopStaleRemoved
	// StopStopped means the process was signalled and has exited.
	StopStopped
	// StopSignalFailed means a signal could not be delivered; the record is kept.
	StopSignalFailed
)

func (o StopOutcome) String() string {
	switch o {
	case StopNotRunning:
		return "not_running"
	case StopStaleRemoved:
		return "stale_removed"
	case StopStopped:
		return "stopped"
	case StopSignalFailed:
		return "signal_failed"
	default:
		return fmt.Sprintf("StopOutcome(%d)", int(o))
	}
}

// StopResult describes what Stop did.
type StopResult struct {
	Outcome StopOutcome
	PID     int

	// Forced is true when the process outlived the graceful window.
	Forced bool

	// SignalErr explains StopSignalFailed.
	SignalErr error
}

// Stop terminates the dev server: SIGTERM, poll, then SIGKILL if needed.
func (m *Manager) Stop(ctx context.Context) (*StopResult, error) {
	pid, ok, err := m.pidFile.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &StopResult{Outcome: StopNotRunning}, nil
	}

	result := &StopResult{PID: pid}
	logger := devlog.WithProcess(m.logger, pid)

	if !m.procs.IsRunning(pid) {
		logger.Info("removing stale pid file", devlog.EventKey, "stale_pid")
		if err := m.pidFile.Remove(); err != nil {
			return nil, err
		}
		result.Outcome = StopStaleRemoved
		return result, nil
	}

	m.reporter.Stopping(pid)
	started := m.clock.Now()

	if err := m.signal(pid, syscall.SIGTERM); err != nil {
		logger.Error("failed to send graceful signal", devlog.Error(err))
		result.Outcome = StopSignalFailed
		result.SignalErr = err
		return result, nil
	}

	for attempt := 0; attempt < m.timing.StopPollAttempts && m.procs.IsRunning(pid); attempt++ {
		devlog.Trace(logger, "waiting for dev server to exit", slog.Int("attempt", attempt+1))
		if err := m.clock.Sleep(ctx, m.timing.StopPollInterval); err != nil {
			return nil, err
		}
	}

	if m.procs.IsRunning(pid) {
		m.reporter.ForceStopping(pid)
		result.Forced = true
		if err := m.signal(pid, syscall.SIGKILL); err != nil {
			logger.Error("failed to send forceful signal", devlog.Error(err))
			result.Outcome = StopSignalFailed
			result.SignalErr = err
			return result, nil
		}
	}

	if err := m.pidFile.Remove(); err != nil {
		return nil, err
	}

	if err := m.events.LogStop(); err != nil {
		logger.Debug("failed to append stop banner", devlog.Error(err))
	}

	logger.Info("dev server stopped",
		devlog.EventKey, "stop_success",
		slog.Bool("forced", result.Forced),
		slog.Int64(devlog.DurationKey, m.clock.Now().Sub(started).Milliseconds()))

	result.Outcome = StopStopped
	return result, nil
}

// signal delivers sig, treating a process that is already gone as success.
func (m *Manager) signal(pid int, sig syscall.Signal) error {
	err := m.procs.Signal(pid, sig)
	if errors.Is(err, ErrProcessNotRunning) {
		return nil
	}
	return err
}

// RestartResult holds both halves of a restart.
type RestartResult struct {
	Stop  *StopResult
	Start *StartResult
}

// Restart stops the dev server, waits for resources to be released, and
// starts it again. A failure between the halves leaves it stopped.
func (m *Manager) Restart(ctx context.Context) (*RestartResult, error) {
	m.reporter.Restarting()

	stopped, err := m.Stop(ctx)
	if err != nil {
		return nil, err
	}
	result := &RestartResult{Stop: stopped}

	if err := m.clock.Sleep(ctx, m.timing.RestartDelay); err != nil {
		return result, err
	}

	started, err := m.Start(ctx)
	if err != nil {
		return result, err
	}
	result.Start = started

	return result, nil
}

// Status is the reconciled state of the dev server.
type Status struct {
	PID     int  `json:"pid,omitempty"`
	Running bool `json:"running"`

	// StaleRemoved is true when this query found and removed a dead record.
	StaleRemoved bool `json:"stale_removed,omitempty"`

	LogPath   string     `json:"log_path,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Uptime    string     `json:"uptime,omitempty"`
}

// Status reports whether the dev server is running, removing a stale record
// if it finds one.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	pid, ok, err := m.pidFile.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Status{}, nil
	}

	if !m.procs.IsRunning(pid) {
		m.logger.Info("removing stale pid file", devlog.EventKey, "stale_pid", devlog.PIDKey, pid)
		if err := m.pidFile.Remove(); err != nil {
			return nil, err
		}
		return &Status{PID: pid, StaleRemoved: true}, nil
	}

	status := &Status{
		PID:     pid,
		Running: true,
		LogPath: m.LogPath(),
	}

	if m.startTimer != nil {
		started, err := m.startTimer.StartTime(ctx, pid)
		if err != nil {
			m.logger.Debug("start time unavailable", devlog.PIDKey, pid, devlog.Error(err))
		} else {
			status.StartTime = &started
			status.Uptime = FormatUptime(m.clock.Now().Sub(started))
		}
	}

	return status, nil
}

// LogExists reports whether the dev server log has been created.
func (m *Manager) LogExists() (bool, error) {
	exists, err := m.fs.Exists(m.LogPath())
	if err != nil {
		return false, &devctlerrors.StorageError{Op: "check", Path: m.LogPath(), Cause: err}
	}
	return exists, nil
}

// Logs streams the dev server log to w until ctx is cancelled.
func (m *Manager) Logs(ctx context.Context, w io.Writer) error {
	exists, err := m.LogExists()
	if err != nil {
		return err
	}
	if !exists {
		return ErrLogFileNotFound
	}

	if m.follower == nil {
		return ErrFollowUnavailable
	}

	return m.follower.Follow(ctx, m.LogPath(), m.timing.TailLines, w)
}

// FormatUptime renders d as HH:MM:SS. Hours are not wrapped at 24 and
// negative durations render as zero.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
