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
	"encoding/json"
	"errors"
	"io"

	devctlerrors "github.com/tombee/devctl/pkg/errors"
)

// JSONVersion is the envelope version of all JSON output.
const JSONVersion = "1.0"

// ErrReported marks an error whose details were already written as JSON.
var ErrReported = errors.New("error already reported")

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// NewJSONResponse returns an envelope for command.
func NewJSONResponse(command string, success bool) JSONResponse {
	return JSONResponse{
		Version: JSONVersion,
		Command: command,
		Success: success,
	}
}

// JSONError represents a structured error with code, message, and suggestion
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewJSONError converts err into its structured form.
func NewJSONError(err error) JSONError {
	jsonErr := JSONError{
		Code:    ErrorCode(err),
		Message: err.Error(),
	}

	var userErr devctlerrors.UserVisibleError
	if errors.As(err, &userErr) && userErr.IsUserVisible() {
		jsonErr.Message = userErr.UserMessage()
		jsonErr.Suggestion = userErr.Suggestion()
	}

	return jsonErr
}

// EmitJSON writes response to w as indented JSON.
func EmitJSON(w io.Writer, response any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitJSONError writes a failed envelope for command carrying err, and
// returns an error that exits non-zero without being printed again.
func EmitJSONError(w io.Writer, command string, err error) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	resp := errorResponse{
		JSONResponse: NewJSONResponse(command, false),
		Errors:       []JSONError{NewJSONError(err)},
	}

	if emitErr := EmitJSON(w, resp); emitErr != nil {
		return emitErr
	}

	return &ExitError{
		Code:    ExitCode(err),
		Message: command + " failed",
		Cause:   errors.Join(ErrReported, err),
	}
}
