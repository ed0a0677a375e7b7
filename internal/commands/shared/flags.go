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

// Global flag values - set by root command
var (
	verboseFlag bool
	quietFlag   bool
	jsonFlag    bool
	configFlag  string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterFlagPointers returns pointers to the persistent flag variables
// (verbose, quiet, json, config) for the root command to bind.
func RegisterFlagPointers() (*bool, *bool, *bool, *string) {
	return &verboseFlag, &quietFlag, &jsonFlag, &configFlag
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// GetVerbose reports whether --verbose was given.
func GetVerbose() bool {
	return verboseFlag
}

// GetQuiet reports whether --quiet was given. Quiet suppresses progress
// notices but never the final result line.
func GetQuiet() bool {
	return quietFlag
}

// GetJSON reports whether --json was given.
func GetJSON() bool {
	return jsonFlag
}

// GetConfigPath returns the --config value, or "" for the project default.
func GetConfigPath() string {
	return configFlag
}

// ResetFlagsForTest restores every persistent flag to its zero value.
func ResetFlagsForTest() {
	verboseFlag = false
	quietFlag = false
	jsonFlag = false
	configFlag = ""
}
