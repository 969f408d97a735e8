// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package shuttle

import (
	"encoding/json"
)

// Tool names published to the model.
const (
	ToolListTables    = "listTables"
	ToolDescribeTable = "describeTable"
	ToolExecuteQuery  = "executeQuery"
	ToolWebSearch     = "webSearch"
)

// Definition is a tool as advertised to the language model.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema *JSONSchema `json:"input_schema"`
}

// Result represents the outcome of tool execution.
type Result struct {
	// Success indicates if the tool executed successfully
	Success bool

	// Data is the success payload shown to the model
	Data map[string]any

	// Error contains error information if execution failed
	Error *Error

	// ExecutionTime in milliseconds
	ExecutionTimeMs int64
}

// Error represents a tool execution error with structured information.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Details are copied into the payload next to the message
	// (e.g. failedQuery)
	Details map[string]any

	// Suggestion provides a suggestion for fixing the error
	Suggestion string
}

// Error codes used across tools.
const (
	CodeUnknownTool      = "unknown_tool"
	CodeInvalidArguments = "invalid_arguments"
	CodeValidationFailed = "validation_failed"
	CodeQueryFailed      = "query_failed"
	CodeExecutionFailed  = "execution_failed"
	CodeTimeout          = "timeout"
	CodeCancelled        = "cancelled"
)

// Success builds a successful result.
func Success(data map[string]any) *Result {
	return &Result{Success: true, Data: data}
}

// Failure builds a failed result.
func Failure(code, message, suggestion string, details map[string]any) *Result {
	return &Result{
		Success: false,
		Error: &Error{
			Code:       code,
			Message:    message,
			Suggestion: suggestion,
			Details:    details,
		},
	}
}

// Payload renders the result as the JSON object handed back to the model.
// Failures always carry an "error" key.
func (r *Result) Payload() map[string]any {
	if r.Success || r.Error == nil {
		if r.Data == nil {
			return map[string]any{}
		}
		return r.Data
	}
	out := make(map[string]any, len(r.Error.Details)+2)
	for k, v := range r.Error.Details {
		out[k] = v
	}
	out["error"] = r.Error.Message
	if r.Error.Suggestion != "" {
		out["suggestion"] = r.Error.Suggestion
	}
	return out
}

// JSON encodes Payload. Values that cannot be encoded degrade to an error
// object rather than failing the turn.
func (r *Result) JSON() string {
	data, err := json.Marshal(r.Payload())
	if err != nil {
		fallback, _ := json.Marshal(map[string]any{"error": "failed to encode tool result: " + err.Error()})
		return string(fallback)
	}
	return string(data)
}

// JSONSchema represents a JSON Schema for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []any                  `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	MinLength   *int                   `json:"minLength,omitempty"`
}

// ToMap converts the schema into a generic map, the form SDK parameter types
// expect.
func (s *JSONSchema) ToMap() map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	if s.Type == "object" {
		if _, ok := out["properties"]; !ok {
			out["properties"] = map[string]any{}
		}
	}
	return out
}

// NewObjectSchema creates a new object schema with the given properties.
func NewObjectSchema(description string, properties map[string]*JSONSchema, required []string) *JSONSchema {
	return NormalizeSchema(&JSONSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	})
}

// NewStringSchema creates a new string schema.
func NewStringSchema(description string) *JSONSchema {
	return &JSONSchema{
		Type:        "string",
		Description: description,
	}
}

// WithEnum adds enum values to the schema.
func (s *JSONSchema) WithEnum(values ...any) *JSONSchema {
	s.Enum = values
	return s
}

// WithDefault adds a default value to the schema.
func (s *JSONSchema) WithDefault(value any) *JSONSchema {
	s.Default = value
	return s
}

// WithMinLength requires a non-empty string of at least n characters.
func (s *JSONSchema) WithMinLength(n int) *JSONSchema {
	s.MinLength = &n
	return s
}
