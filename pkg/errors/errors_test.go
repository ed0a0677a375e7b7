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

package errors_test

import (
	"errors"
	"strings"
	"testing"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		original := errors.New("disk full")
		wrapped := devctlerrors.Wrap(original, "writing pid file")

		msg := wrapped.Error()
		if !strings.Contains(msg, "writing pid file") || !strings.Contains(msg, "disk full") {
			t.Errorf("unexpected message: %s", msg)
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should match original with errors.Is")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if devctlerrors.Wrap(nil, "context") != nil {
			t.Error("Wrap(nil, _) should return nil")
		}
		if devctlerrors.Wrapf(nil, "context %d", 1) != nil {
			t.Error("Wrapf(nil, _) should return nil")
		}
	})

	t.Run("formats context", func(t *testing.T) {
		wrapped := devctlerrors.Wrapf(errors.New("boom"), "signal %d", 15)
		if wrapped.Error() != "signal 15: boom" {
			t.Errorf("Wrapf() = %q", wrapped.Error())
		}
	})
}

func TestConfigError(t *testing.T) {
	cause := errors.New("yaml: line 2")
	err := &devctlerrors.ConfigError{Key: "command", Reason: "must not be empty", Cause: cause}

	if !strings.Contains(err.Error(), "config error at command: must not be empty") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}

	var visible devctlerrors.UserVisibleError = err
	if !visible.IsUserVisible() || visible.Suggestion() == "" {
		t.Error("ConfigError should be user visible with a suggestion")
	}
}

func TestSetupError(t *testing.T) {
	cause := errors.New("executable file not found in $PATH")
	err := &devctlerrors.SetupError{
		Command: "npm run dev",
		Hint:    "Add a dev script to package.json",
		Cause:   cause,
	}

	if !strings.Contains(err.Error(), `"npm run dev"`) {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("SetupError should unwrap to its cause")
	}

	var visible devctlerrors.UserVisibleError
	if !errors.As(err, &visible) {
		t.Fatal("SetupError should implement UserVisibleError")
	}
	if visible.Suggestion() != "Add a dev script to package.json" {
		t.Errorf("Suggestion() = %q", visible.Suggestion())
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &devctlerrors.StorageError{Op: "write", Path: "logs/dev.pid", Cause: cause}

	if err.Error() != "failed to write logs/dev.pid: permission denied" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("StorageError should unwrap to its cause")
	}
}
