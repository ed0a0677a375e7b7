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

//go:build linux || darwin

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// psStartTimer reads process creation time from the host process table.
type psStartTimer struct{}

// NewStartTimer returns the host StartTimer.
func NewStartTimer() StartTimer {
	return psStartTimer{}
}

func (psStartTimer) StartTime(ctx context.Context, pid int) (time.Time, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to look up process %d: %w", pid, err)
	}

	createdMs, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read start time of process %d: %w", pid, err)
	}

	return time.UnixMilli(createdMs), nil
}
