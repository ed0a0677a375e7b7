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

	"github.com/spf13/afero"
)

// FileSystem is the file access surface used for devctl state files.
// Paths are absolute host paths; implementations decide where bytes live.
type FileSystem interface {
	// ReadFile returns the full contents of path.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the contents of path. Readers never observe a
	// partially written file.
	WriteFile(path string, data []byte) error

	// AppendFile appends data to path, creating it if needed.
	AppendFile(path string, data []byte) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Remove deletes path. A missing file is not an error.
	Remove(path string) error
}

// aferoFileSystem implements FileSystem on top of an afero.Fs.
type aferoFileSystem struct {
	fs afero.Fs
}

// NewOSFileSystem returns a FileSystem backed by the host filesystem.
func NewOSFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewOsFs()}
}

// NewMemFileSystem returns a FileSystem held entirely in memory.
func NewMemFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewMemMapFs()}
}

// NewAferoFileSystem adapts an arbitrary afero.Fs.
func NewAferoFileSystem(base afero.Fs) FileSystem {
	return &aferoFileSystem{fs: base}
}

func (a *aferoFileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

func (a *aferoFileSystem) WriteFile(path string, data []byte) error {
	// Write to a sibling and rename over the target so the swap is whole-file.
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := afero.WriteFile(a.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := a.fs.Rename(tmp, path); err != nil {
		_ = a.fs.Remove(tmp)
		return err
	}
	return nil
}

func (a *aferoFileSystem) AppendFile(path string, data []byte) error {
	f, err := a.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *aferoFileSystem) MkdirAll(path string) error {
	return a.fs.MkdirAll(path, 0o755)
}

func (a *aferoFileSystem) Exists(path string) (bool, error) {
	return afero.Exists(a.fs, path)
}

func (a *aferoFileSystem) Remove(path string) error {
	if err := a.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
