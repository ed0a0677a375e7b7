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
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrProcessNotRunning is returned when signalling a process that does not exist.
var ErrProcessNotRunning = errors.New("process not running")

// ProcessController probes and signals processes by pid.
type ProcessController interface {
	// IsRunning reports whether a process with pid exists. It never
	// disturbs the target.
	IsRunning(pid int) bool

	// Signal delivers sig to pid. A missing process yields an error
	// wrapping ErrProcessNotRunning.
	Signal(pid int, sig syscall.Signal) error
}

// OSProcessController implements ProcessController with kill(2).
type OSProcessController struct{}

// NewOSProcessController returns the host process controller.
func NewOSProcessController() *OSProcessController {
	return &OSProcessController{}
}

// IsRunning sends the null signal. Only ESRCH means the process is gone;
// EPERM means it exists but belongs to someone else.
func (OSProcessController) IsRunning(pid int) bool {
	// kill(0) and kill(-n) address process groups, never a single process.
	if pid <= 0 {
		return false
	}

	err := unix.Kill(pid, 0)
	return !errors.Is(err, unix.ESRCH)
}

// Signal sends sig to the given process.
func (OSProcessController) Signal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}

	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, ErrProcessNotRunning)
		}
		return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, err)
	}

	return nil
}
