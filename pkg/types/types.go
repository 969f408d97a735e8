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

// Package types holds the conversation and model types shared by pkg/agent
// and the pkg/llm providers.
package types

import (
	"context"

	"github.com/teradata-labs/insight/pkg/shuttle"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Normalized stop reasons reported in LLMResponse.StopReason.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its result
	ID string

	// Name is the tool name
	Name string

	// Input contains the decoded tool arguments
	Input map[string]any
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is the message sender (system, user, assistant, tool)
	Role string

	// Content is the message text. For tool messages it is the JSON-encoded
	// tool result.
	Content string

	// ToolCalls contains tool invocations (if role is assistant)
	ToolCalls []ToolCall

	// ToolUseID is the ID of the tool call this result answers (if role is tool)
	ToolUseID string

	// ToolName is the tool that produced the result (if role is tool)
	ToolName string

	// ToolResult is the structured result behind Content (if role is tool)
	ToolResult *shuttle.Result
}

// UserMessage returns a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage returns the tool message answering call.
func ToolMessage(call ToolCall, result *shuttle.Result) Message {
	return Message{
		Role:       RoleTool,
		Content:    result.JSON(),
		ToolUseID:  call.ID,
		ToolName:   call.Name,
		ToolResult: result,
	}
}

// Usage tracks model token usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// LLMResponse represents a response from the model.
type LLMResponse struct {
	// Content is the text of the response
	Content string

	// ToolCalls contains requested tool executions
	ToolCalls []ToolCall

	// StopReason indicates why the model stopped
	StopReason string

	// Usage tracks token usage
	Usage Usage

	// Metadata contains provider-specific metadata
	Metadata map[string]any
}

// HasToolCalls reports whether the model requested any tool.
func (r *LLMResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// LLMProvider defines the interface for chat model providers.
type LLMProvider interface {
	// Chat sends a conversation and the published tools to the model
	Chat(ctx context.Context, messages []Message, tools []shuttle.Definition) (*LLMResponse, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}

// TokenCallback receives text deltas while a response streams.
type TokenCallback func(token string)

// StreamingLLMProvider is implemented by providers that can surface text as
// the model produces it. ChatStream calls onToken synchronously and in order
// on the calling goroutine, then returns the complete response.
type StreamingLLMProvider interface {
	LLMProvider

	ChatStream(ctx context.Context, messages []Message, tools []shuttle.Definition, onToken TokenCallback) (*LLMResponse, error)
}
