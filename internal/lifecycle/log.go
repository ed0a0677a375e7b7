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
	"fmt"
	"strings"
	"time"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// bannerRule closes the start banner.
var bannerRule = strings.Repeat("=", 50)

// LifecycleLog appends lifecycle banners to the dev server log. Banners are
// written by devctl itself so they appear even before the child prints anything.
type LifecycleLog struct {
	fs    FileSystem
	path  string
	clock Clock
}

// NewLifecycleLog creates a lifecycle log writing to path.
func NewLifecycleLog(fs FileSystem, path string, clock Clock) *LifecycleLog {
	if clock == nil {
		clock = RealClock()
	}
	return &LifecycleLog{
		fs:    fs,
		path:  path,
		clock: clock,
	}
}

// LogStart appends the start banner for a newly spawned process.
func (l *LifecycleLog) LogStart(dir string, pid int) error {
	return l.append(StartBanner(l.clock.Now(), dir, pid))
}

// LogStop appends the manual stop banner.
func (l *LifecycleLog) LogStop() error {
	return l.append(StopBanner(l.clock.Now()))
}

func (l *LifecycleLog) append(banner string) error {
	if err := l.fs.AppendFile(l.path, []byte(banner)); err != nil {
		return &devctlerrors.StorageError{Op: "append to", Path: l.path, Cause: err}
	}
	return nil
}

// StartBanner renders the header written when the dev server starts.
func StartBanner(at time.Time, dir string, pid int) string {
	return strings.Join([]string{
		fmt.Sprintf("=== devctl dev server started %s ===", formatBannerTime(at)),
		fmt.Sprintf("Project directory: %s", dir),
		fmt.Sprintf("PID: %d", pid),
		bannerRule,
		"",
	}, "\n")
}

// StopBanner renders the marker written after a manual stop.
func StopBanner(at time.Time) string {
	return fmt.Sprintf("\n=== devctl dev server stopped manually %s ===\n\n", formatBannerTime(at))
}

func formatBannerTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
