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
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/observability"
	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

// InstrumentedProvider wraps any LLMProvider with rate limiting, Prometheus
// metrics and debug logging. It is transparent to the caller.
type InstrumentedProvider struct {
	provider types.LLMProvider
	limiter  *RateLimiter
	logger   *zap.Logger
}

// NewInstrumentedProvider creates a new instrumented provider. limiter may be
// nil.
func NewInstrumentedProvider(provider types.LLMProvider, limiter *RateLimiter, logger *zap.Logger) *InstrumentedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedProvider{
		provider: provider,
		limiter:  limiter,
		logger:   logger,
	}
}

// Name returns the underlying provider name.
func (p *InstrumentedProvider) Name() string {
	return p.provider.Name()
}

// Model returns the underlying model identifier.
func (p *InstrumentedProvider) Model() string {
	return p.provider.Model()
}

// Unwrap returns the wrapped provider.
func (p *InstrumentedProvider) Unwrap() types.LLMProvider {
	return p.provider
}

// Limiter returns the rate limiter, or nil.
func (p *InstrumentedProvider) Limiter() *RateLimiter {
	return p.limiter
}

// Close stops the rate limiter.
func (p *InstrumentedProvider) Close() error {
	if p.limiter != nil {
		return p.limiter.Close()
	}
	return nil
}

// Chat waits for a rate limiter slot, then calls the underlying provider
// exactly once.
func (p *InstrumentedProvider) Chat(ctx context.Context, messages []types.Message, tools []shuttle.Definition) (*types.LLMResponse, error) {
	return p.call(ctx, messages, tools, false, func(ctx context.Context) (*types.LLMResponse, error) {
		return p.provider.Chat(ctx, messages, tools)
	})
}

// ChatStream streams through the underlying provider when it supports
// streaming. Otherwise it behaves like Chat and onToken is never called.
func (p *InstrumentedProvider) ChatStream(ctx context.Context, messages []types.Message, tools []shuttle.Definition, onToken types.TokenCallback) (*types.LLMResponse, error) {
	streamer, ok := p.provider.(types.StreamingLLMProvider)
	if !ok {
		return p.Chat(ctx, messages, tools)
	}
	return p.call(ctx, messages, tools, true, func(ctx context.Context) (*types.LLMResponse, error) {
		return streamer.ChatStream(ctx, messages, tools, onToken)
	})
}

func (p *InstrumentedProvider) call(ctx context.Context, messages []types.Message, tools []shuttle.Definition, streaming bool, do func(context.Context) (*types.LLMResponse, error)) (*types.LLMResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			observability.RecordLLMRequest(p.provider.Name(), 0, 0, err)
			return nil, err
		}
	}

	start := time.Now()
	resp, err := do(ctx)
	duration := time.Since(start)

	if err != nil {
		observability.RecordLLMRequest(p.provider.Name(), 0, 0, err)
		p.logger.Warn("model call failed",
			zap.String("provider", p.provider.Name()),
			zap.String("model", p.provider.Model()),
			zap.Bool("streaming", streaming),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	observability.RecordLLMRequest(p.provider.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens, nil)
	if p.limiter != nil {
		p.limiter.RecordTokenUsage(int64(resp.Usage.InputTokens + resp.Usage.OutputTokens))
	}

	p.logger.Debug("model call completed",
		zap.String("provider", p.provider.Name()),
		zap.String("model", p.provider.Model()),
		zap.Bool("streaming", streaming),
		zap.Int("messages", len(messages)),
		zap.Int("tools", len(tools)),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("duration", duration))

	return resp, nil
}

var _ types.StreamingLLMProvider = (*InstrumentedProvider)(nil)
