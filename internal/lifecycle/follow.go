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
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrFollowUnavailable is returned when the log cannot be followed live.
var ErrFollowUnavailable = errors.New("log follow is unavailable")

// Follower streams a log file to a writer.
type Follower interface {
	// Follow writes the last tailLines lines of path to w, then copies
	// appended content until ctx is done. Cancellation returns nil.
	Follow(ctx context.Context, path string, tailLines int, w io.Writer) error
}

// FileFollower follows a host file using fsnotify, with a polling fallback
// for filesystems that do not deliver write events.
type FileFollower struct {
	// PollInterval is the fallback re-read period.
	PollInterval time.Duration

	logger     *slog.Logger
	newWatcher func() (*fsnotify.Watcher, error)
}

// NewFileFollower creates a follower with a 500ms poll fallback.
func NewFileFollower() *FileFollower {
	return &FileFollower{
		PollInterval: 500 * time.Millisecond,
		logger:       slog.Default().With(slog.String("component", "follower")),
		newWatcher:   fsnotify.NewWatcher,
	}
}

// WithLogger sets the diagnostics logger.
func (f *FileFollower) WithLogger(logger *slog.Logger) *FileFollower {
	f.logger = logger.With(slog.String("component", "follower"))
	return f
}

// Follow implements Follower.
func (f *FileFollower) Follow(ctx context.Context, path string, tailLines int, w io.Writer) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	newWatcher := f.newWatcher
	if newWatcher == nil {
		newWatcher = fsnotify.NewWatcher
	}
	watcher, err := newWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFollowUnavailable, err)
	}
	defer watcher.Close()

	// Watch the directory so a recreated file is picked up.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("%w: %v", ErrFollowUnavailable, err)
	}

	offset, err := writeTail(absPath, tailLines, w)
	if err != nil {
		return err
	}

	interval := f.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != absPath || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if f.logger != nil {
				f.logger.Debug("file watcher error", "error", err)
			}
			continue
		case <-ticker.C:
		}

		offset, err = copyFrom(absPath, offset, w)
		if err != nil {
			return err
		}
	}
}

// writeTail writes the last n lines of path and returns the end offset.
func writeTail(path string, n int, w io.Writer) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat log file: %w", err)
	}

	start, err := tailOffset(file, info.Size(), n)
	if err != nil {
		return 0, fmt.Errorf("failed to read log file: %w", err)
	}

	written, err := io.Copy(w, io.NewSectionReader(file, start, info.Size()-start))
	if err != nil {
		return 0, err
	}

	return start + written, nil
}

// copyFrom writes everything after offset and returns the new end offset.
// A file shorter than offset was truncated or replaced and is read from 0.
func copyFrom(path string, offset int64, w io.Writer) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}

	written, err := io.Copy(w, io.NewSectionReader(file, offset, info.Size()-offset))
	return offset + written, err
}

// tailOffset returns the offset where the last n lines of a size-byte file begin.
// A trailing newline does not count as an empty last line.
func tailOffset(r io.ReaderAt, size int64, n int) (int64, error) {
	if n <= 0 {
		return size, nil
	}

	const chunkSize = 4096
	buf := make([]byte, chunkSize)
	seen := 0
	pos := size

	for pos > 0 {
		length := int64(chunkSize)
		if pos < length {
			length = pos
		}
		pos -= length

		if _, err := r.ReadAt(buf[:length], pos); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		for i := length - 1; i >= 0; i-- {
			if buf[i] != '\n' || pos+i == size-1 {
				continue
			}
			seen++
			if seen == n {
				return pos + i + 1, nil
			}
		}
	}

	return 0, nil
}
