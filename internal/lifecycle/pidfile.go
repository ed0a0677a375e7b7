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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

const (
	// LogsDirName is the directory, relative to the project, holding devctl state.
	LogsDirName = "logs"

	// LogFileName is the append-only dev server log.
	LogFileName = "dev.log"

	// PIDFileName records the pid of the managed process.
	PIDFileName = "dev.pid"
)

// ErrInvalidPID is returned when writing a negative PID.
var ErrInvalidPID = errors.New("invalid PID")

// LogsDir returns the state directory for the project rooted at dir.
func LogsDir(dir string) string {
	return filepath.Join(dir, LogsDirName)
}

// LogPath returns the dev server log path for the project rooted at dir.
func LogPath(dir string) string {
	return filepath.Join(dir, LogsDirName, LogFileName)
}

// PIDPath returns the PID file path for the project rooted at dir.
func PIDPath(dir string) string {
	return filepath.Join(dir, LogsDirName, PIDFileName)
}

// PIDFile persists the pid of the managed process as a trimmed decimal string.
// A missing file means no process is tracked.
type PIDFile struct {
	fs   FileSystem
	path string
}

// NewPIDFile creates a PID store for the given path.
func NewPIDFile(fs FileSystem, path string) *PIDFile {
	return &PIDFile{
		fs:   fs,
		path: path,
	}
}

// Path returns the location of the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Read returns the recorded pid. ok is false when the file is missing or its
// contents are not a non-negative integer; neither case is an error.
func (p *PIDFile) Read() (pid int, ok bool, err error) {
	data, err := p.fs.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, &devctlerrors.StorageError{Op: "read", Path: p.path, Cause: err}
	}

	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid < 0 {
		return 0, false, nil
	}

	return pid, true, nil
}

// Write overwrites the file with pid.
func (p *PIDFile) Write(pid int) error {
	if pid < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}

	if err := p.fs.WriteFile(p.path, []byte(strconv.Itoa(pid))); err != nil {
		return &devctlerrors.StorageError{Op: "write", Path: p.path, Cause: err}
	}

	return nil
}

// Remove deletes the file. Removing a missing file succeeds.
func (p *PIDFile) Remove() error {
	if err := p.fs.Remove(p.path); err != nil {
		return &devctlerrors.StorageError{Op: "remove", Path: p.path, Cause: err}
	}
	return nil
}

// Exists returns true if the PID file exists.
func (p *PIDFile) Exists() bool {
	ok, err := p.fs.Exists(p.path)
	return err == nil && ok
}
