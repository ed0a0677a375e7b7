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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "warn" {
		t.Errorf("expected default level 'warn', got %q", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format 'text', got %q", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{
			name:       "defaults when no env vars",
			envVars:    map[string]string{},
			wantLevel:  "warn",
			wantFormat: FormatText,
		},
		{
			name:       "LOG_LEVEL is lowercased",
			envVars:    map[string]string{"LOG_LEVEL": "DEBUG"},
			wantLevel:  "debug",
			wantFormat: FormatText,
		},
		{
			name:       "DEVCTL_LOG_LEVEL wins over LOG_LEVEL",
			envVars:    map[string]string{"LOG_LEVEL": "error", "DEVCTL_LOG_LEVEL": "info"},
			wantLevel:  "info",
			wantFormat: FormatText,
		},
		{
			name:       "DEVCTL_DEBUG enables debug and source",
			envVars:    map[string]string{"DEVCTL_DEBUG": "1", "DEVCTL_LOG_LEVEL": "error"},
			wantLevel:  "debug",
			wantFormat: FormatText,
			wantSource: true,
		},
		{
			name:       "LOG_FORMAT=json",
			envVars:    map[string]string{"LOG_FORMAT": "JSON"},
			wantLevel:  "warn",
			wantFormat: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DEVCTL_DEBUG", "DEVCTL_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.AddSource != tt.wantSource {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSource)
			}
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithProcess(logger, 4242).Info("dev server started", EventKey, "start")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "dev server started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry[PIDKey] != float64(4242) {
		t.Errorf("pid = %v", entry[PIDKey])
	}
	if entry[EventKey] != "start" {
		t.Errorf("event = %v", entry[EventKey])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelWarn,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithCorrelationID(logger, "").Info("generated")
	WithCorrelationID(logger, "fixed-id").Info("explicit")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if id, _ := first["correlation_id"].(string); len(id) != 36 {
		t.Errorf("expected generated uuid, got %q", id)
	}
	if second["correlation_id"] != "fixed-id" {
		t.Errorf("correlation_id = %v", second["correlation_id"])
	}
}

func TestTraceAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "trace", Format: FormatText, Output: &buf})

	Trace(logger, "probe", slog.Int(PIDKey, 7))
	logger.Error("failed", Error(errors.New("boom")))

	out := buf.String()
	if !strings.Contains(out, "probe") || !strings.Contains(out, "pid=7") {
		t.Errorf("trace output missing: %s", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("error attr missing: %s", out)
	}

	buf.Reset()
	Trace(New(&Config{Level: "debug", Output: &buf}), "dropped")
	if buf.Len() != 0 {
		t.Errorf("trace should be filtered at debug level: %s", buf.String())
	}
}
