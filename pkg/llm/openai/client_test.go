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
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

func TestNewClientDefaults(t *testing.T) {
	t.Setenv("OPENAI_DEFAULT_MODEL", "")
	t.Setenv("OPENAI_BASE_URL", "")

	c := NewClient(Config{APIKey: "k"})
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, DefaultOpenAIModel, c.Model())
	assert.Equal(t, int64(DefaultOpenAIMaxTokens), c.maxTokens)

	t.Setenv("OPENAI_DEFAULT_MODEL", "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", NewClient(Config{}).Model())
	assert.Equal(t, "custom", NewClient(Config{Model: "custom"}).Model())
}

func newTestServer(t *testing.T, response string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatToolCalls(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": null,
			"tool_calls": [{"id": "call_1", "type": "function",
				"function": {"name": "executeQuery", "arguments": "{\"sql\":\"SELECT 1\"}"}}]}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
	}`, &body)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
	tools := []shuttle.Definition{{
		Name:        shuttle.ToolExecuteQuery,
		Description: "Run a SELECT",
		InputSchema: shuttle.NewObjectSchema("", map[string]*shuttle.JSONSchema{
			"sql": shuttle.NewStringSchema("statement"),
		}, []string{"sql"}),
	}}
	messages := []types.Message{
		{Role: types.RoleSystem, Content: "You are an analyst."},
		types.UserMessage("Total sales?"),
		types.AssistantMessage("", types.ToolCall{ID: "call_0", Name: shuttle.ToolListTables}),
		types.ToolMessage(types.ToolCall{ID: "call_0", Name: shuttle.ToolListTables}, shuttle.Success(map[string]any{"tables": []string{"sales"}})),
	}

	resp, err := c.Chat(context.Background(), messages, tools)
	require.NoError(t, err)
	assert.Equal(t, types.StopToolUse, resp.StopReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, types.ToolCall{ID: "call_1", Name: "executeQuery", Input: map[string]any{"sql": "SELECT 1"}}, resp.ToolCalls[0])
	assert.Equal(t, types.Usage{InputTokens: 12, OutputTokens: 7, TotalTokens: 19}, resp.Usage)

	assert.Equal(t, "gpt-test", body["model"])
	sent := body["messages"].([]any)
	require.Len(t, sent, 4)
	assert.Equal(t, "system", sent[0].(map[string]any)["role"])
	assistant := sent[2].(map[string]any)
	call := assistant["tool_calls"].([]any)[0].(map[string]any)
	assert.Equal(t, "call_0", call["id"])
	assert.Equal(t, "{}", call["function"].(map[string]any)["arguments"])
	tool := sent[3].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_0", tool["tool_call_id"])

	sentTools := body["tools"].([]any)
	require.Len(t, sentTools, 1)
	fn := sentTools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "executeQuery", fn["name"])
	assert.Equal(t, "object", fn["parameters"].(map[string]any)["type"])
}

func TestChatFinalText(t *testing.T) {
	srv := newTestServer(t, `{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-test",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "Sales were 42."}}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7}
	}`, nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	resp, err := c.Chat(context.Background(), []types.Message{types.UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sales were 42.", resp.Content)
	assert.Equal(t, types.StopEndTurn, resp.StopReason)
	assert.False(t, resp.HasToolCalls())
}

func TestChatAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.Chat(context.Background(), []types.Message{types.UserMessage("hi")}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestInvalidToolArguments(t *testing.T) {
	srv := newTestServer(t, `{
		"id": "chatcmpl-3", "object": "chat.completion", "created": 1, "model": "gpt-test",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": "",
			"tool_calls": [{"id": "call_9", "type": "function",
				"function": {"name": "describeTable", "arguments": "{not json"}}]}}]
	}`, nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	resp, err := c.Chat(context.Background(), []types.Message{types.UserMessage("hi")}, nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Empty(t, resp.ToolCalls[0].Input)
}

func TestStopReason(t *testing.T) {
	assert.Equal(t, types.StopEndTurn, stopReason("stop"))
	assert.Equal(t, types.StopMaxTokens, stopReason("length"))
	assert.Equal(t, types.StopToolUse, stopReason("tool_calls"))
	assert.Equal(t, "content_filter", stopReason("content_filter"))
}

func newStreamServer(t *testing.T, chunks []string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			_, _ = w.Write([]byte("data: " + c + "\n\n"))
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatStreamText(t *testing.T) {
	var body map[string]any
	srv := newStreamServer(t, []string{
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","content":"Sales "},"finish_reason":null}]}`,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"content":"were 42."},"finish_reason":null}]}`,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`,
	}, &body)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
	var tokens []string
	resp, err := c.ChatStream(context.Background(), []types.Message{types.UserMessage("hi")}, nil, func(tok string) {
		tokens = append(tokens, tok)
	})
	require.NoError(t, err)

	assert.Equal(t, true, body["stream"])
	assert.Equal(t, []string{"Sales ", "were 42."}, tokens)
	assert.Equal(t, "Sales were 42.", resp.Content)
	assert.Equal(t, types.StopEndTurn, resp.StopReason)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.False(t, resp.HasToolCalls())
}

func TestChatStreamToolCall(t *testing.T) {
	srv := newStreamServer(t, []string{
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"executeQuery","arguments":""}}]},"finish_reason":null}]}`,
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"sql\":\"SELECT 1\"}"}}]},"finish_reason":null}]}`,
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	}, nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
	resp, err := c.ChatStream(context.Background(), []types.Message{types.UserMessage("hi")}, nil, func(string) {
		t.Fatal("tool call turns carry no text")
	})
	require.NoError(t, err)
	assert.Equal(t, types.StopToolUse, resp.StopReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, types.ToolCall{ID: "call_1", Name: "executeQuery", Input: map[string]any{"sql": "SELECT 1"}}, resp.ToolCalls[0])
}
