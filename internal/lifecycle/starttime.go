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
	"time"
)

// StartTimer looks up when a process started. It is an optional capability:
// NewStartTimer returns nil on platforms without a process table query, and
// callers skip uptime reporting in that case.
type StartTimer interface {
	StartTime(ctx context.Context, pid int) (time.Time, error)
}
