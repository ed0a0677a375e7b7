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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// Exit codes for devctl commands
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewFailureError creates an error for an operation that could not complete.
func NewFailureError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitFailure,
		Message: msg,
		Cause:   cause,
	}
}

// NewUsageError creates an error for invalid flags or arguments.
func NewUsageError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitUsage,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// PrintError writes err and any suggestion carried in its chain to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(w, RenderError("Error: "+err.Error()))
	printUserVisibleSuggestion(w, err)
}

// HandleExitError prints err and exits with its code. Errors already
// reported as JSON are not printed again.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	if !errors.Is(err, ErrReported) {
		PrintError(os.Stderr, err)
	}
	os.Exit(ExitCode(err))
}

// printUserVisibleSuggestion finds the first UserVisibleError in the chain
// and prints its suggestion if available.
func printUserVisibleSuggestion(w io.Writer, err error) {
	var userErr devctlerrors.UserVisibleError
	if !errors.As(err, &userErr) || !userErr.IsUserVisible() {
		return
	}

	if suggestion := userErr.Suggestion(); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}
