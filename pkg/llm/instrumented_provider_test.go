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
package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/insight/pkg/observability"
	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

type mockLLMProvider struct {
	mu           sync.Mutex
	name         string
	response     *types.LLMResponse
	err          error
	callCount    int
	lastMessages []types.Message
	lastTools    []shuttle.Definition
}

func (m *mockLLMProvider) Chat(_ context.Context, messages []types.Message, tools []shuttle.Definition) (*types.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastMessages = messages
	m.lastTools = tools
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockLLMProvider) Name() string  { return m.name }
func (m *mockLLMProvider) Model() string { return "mock-model" }

func TestInstrumentedProvider_Chat(t *testing.T) {
	mock := &mockLLMProvider{
		name: "mock-ok",
		response: &types.LLMResponse{
			Content:    "hello",
			StopReason: types.StopEndTurn,
			Usage:      types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		},
	}
	rl := NewRateLimiter(RateLimiterConfig{Enabled: true, RequestsPerSecond: 100, BurstCapacity: 10})
	defer rl.Close()

	p := NewInstrumentedProvider(mock, rl, zaptest.NewLogger(t))
	assert.Equal(t, "mock-ok", p.Name())
	assert.Equal(t, "mock-model", p.Model())
	assert.Same(t, mock, p.Unwrap())

	tools := []shuttle.Definition{{Name: shuttle.ToolListTables}}
	resp, err := p.Chat(context.Background(), []types.Message{types.UserMessage("hi")}, tools)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 1, mock.callCount)
	assert.Equal(t, tools, mock.lastTools)

	assert.Equal(t, int64(15), rl.GetTokenUsageLastMinute())
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.LLMRequestsTotal.WithLabelValues("mock-ok", "success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(observability.LLMTokensTotal.WithLabelValues("mock-ok", "input")))
}

func TestInstrumentedProvider_ErrorIsNotRetried(t *testing.T) {
	mock := &mockLLMProvider{name: "mock-err", err: errors.New("429 Too Many Requests")}
	p := NewInstrumentedProvider(mock, nil, nil)

	_, err := p.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, mock.callCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.LLMRequestsTotal.WithLabelValues("mock-err", "error")))
}

func TestInstrumentedProvider_LimiterCancellation(t *testing.T) {
	mock := &mockLLMProvider{name: "mock-cancel", response: &types.LLMResponse{}}
	rl := NewRateLimiter(RateLimiterConfig{Enabled: true})
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInstrumentedProvider(mock, rl, nil).Chat(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.callCount)
}

type streamingMockProvider struct {
	mockLLMProvider
	tokens []string
}

func (m *streamingMockProvider) ChatStream(ctx context.Context, messages []types.Message, tools []shuttle.Definition, onToken types.TokenCallback) (*types.LLMResponse, error) {
	for _, tok := range m.tokens {
		onToken(tok)
	}
	return m.Chat(ctx, messages, tools)
}

func TestInstrumentedProvider_ChatStream(t *testing.T) {
	mock := &streamingMockProvider{
		mockLLMProvider: mockLLMProvider{
			name:     "mock-stream",
			response: &types.LLMResponse{Content: "Sales grew.", Usage: types.Usage{InputTokens: 4, OutputTokens: 3}},
		},
		tokens: []string{"Sales ", "grew."},
	}
	p := NewInstrumentedProvider(mock, nil, zaptest.NewLogger(t))

	var got []string
	resp, err := p.ChatStream(context.Background(), []types.Message{types.UserMessage("hi")}, nil, func(tok string) {
		got = append(got, tok)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales ", "grew."}, got)
	assert.Equal(t, "Sales grew.", resp.Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.LLMRequestsTotal.WithLabelValues("mock-stream", "success")))
}

func TestInstrumentedProvider_ChatStreamFallsBackToChat(t *testing.T) {
	mock := &mockLLMProvider{name: "mock-plain", response: &types.LLMResponse{Content: "whole answer"}}
	p := NewInstrumentedProvider(mock, nil, nil)

	called := false
	resp, err := p.ChatStream(context.Background(), nil, nil, func(string) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "whole answer", resp.Content)
	assert.Equal(t, 1, mock.callCount)
}
