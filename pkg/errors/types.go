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

package errors

import (
	"fmt"
)

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "command", "startup_grace")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *ConfigError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ConfigError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ConfigError) Suggestion() string {
	return "Check .devctl.yaml and DEVCTL_* environment variables"
}

// SetupError reports that the managed command cannot be invoked.
// Nothing has been spawned or persisted when this error is produced.
type SetupError struct {
	// Command is the command line that was probed
	Command string

	// Hint is actionable guidance for making the command available
	Hint string

	// Cause is the underlying probe failure
	Cause error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("command %q is not available: %v", e.Command, e.Cause)
	}
	return fmt.Sprintf("command %q is not available", e.Command)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SetupError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *SetupError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *SetupError) UserMessage() string {
	return fmt.Sprintf("%s command not found", e.Command)
}

// Suggestion implements UserVisibleError.
func (e *SetupError) Suggestion() string {
	return e.Hint
}

// StorageError represents a failure to read or write a devctl state file.
// Storage errors are fatal to the current command and are never retried.
type StorageError struct {
	// Op is the attempted operation (e.g., "read", "write", "remove")
	Op string

	// Path is the file involved
	Path string

	// Cause is the underlying I/O error
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
