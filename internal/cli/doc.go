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

/*
Package cli provides the root command for devctl.

This package creates the root Cobra command and handles global concerns like
version information, persistent flags, and exit codes. The dev server
commands are implemented in internal/commands/dev.

# Command Tree

	devctl
	├── start      Start the dev server in the background
	├── stop       Stop the dev server
	├── restart    Restart the dev server
	├── status     Show whether the dev server is running
	├── logs       Follow the dev server log
	├── version    Show version
	└── help       Show help

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(dev.NewCommands(dev.DefaultManagerFactory)...)
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

All commands inherit these flags:

	--verbose, -v    Enable debug logging on stderr
	--quiet, -q      Suppress progress output
	--json           Output in JSON format
	--config         Path to config file (default: ./.devctl.yaml)
*/
package cli
