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

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig      = "E201" // Invalid .devctl.yaml or environment override
	ErrorCodeCommandUnavailable = "E202" // Dev server command cannot be run

	// State errors (E300-E399)
	ErrorCodeStorage      = "E301" // logs/ directory or PID file unusable
	ErrorCodeFileNotFound = "E303" // File not found

	// Process errors (E400-E499)
	ErrorCodeInternal     = "E402" // Internal error
	ErrorCodeSignalFailed = "E404" // Signal could not be delivered
)

// ErrorCode maps err to a JSON error code.
func ErrorCode(err error) string {
	var (
		configErr  *devctlerrors.ConfigError
		setupErr   *devctlerrors.SetupError
		storageErr *devctlerrors.StorageError
		codedErr   interface{ ErrorCode() string }
	)

	switch {
	case errors.As(err, &codedErr):
		return codedErr.ErrorCode()
	case errors.As(err, &configErr):
		return ErrorCodeInvalidConfig
	case errors.As(err, &setupErr):
		return ErrorCodeCommandUnavailable
	case errors.As(err, &storageErr):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}
