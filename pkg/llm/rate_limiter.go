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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimiterClosed is returned by Wait and Do after Close.
var ErrRateLimiterClosed = errors.New("rate limiter stopped")

// RateLimiterConfig configures the model rate limiter.
type RateLimiterConfig struct {
	// Enabled enables rate limiting
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request rate shared by all chats.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// BurstCapacity is the maximum burst of requests allowed.
	BurstCapacity int `mapstructure:"burst"`

	// TokensPerMinute pauses new requests while the model tokens consumed in
	// the last minute exceed it. Zero disables the token budget.
	TokensPerMinute int64 `mapstructure:"tokens_per_minute"`

	// MinDelay is the minimum spacing between request starts.
	MinDelay time.Duration `mapstructure:"min_delay"`

	// QueueTimeout is the maximum time a request can wait for a slot.
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`

	// Logger for rate limiter events
	Logger *zap.Logger `mapstructure:"-"`
}

// DefaultRateLimiterConfig returns defaults suited to hosted model APIs.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Enabled:           true,
		RequestsPerSecond: 2.0,
		BurstCapacity:     5,
		TokensPerMinute:   0,
		MinDelay:          100 * time.Millisecond,
		QueueTimeout:      2 * time.Minute,
		Logger:            zap.NewNop(),
	}
}

// RateLimiter implements token bucket rate limiting for model requests.
// Throttling errors returned by the provider are not retried.
type RateLimiter struct {
	config RateLimiterConfig

	// Token bucket for request rate limiting
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	lastStart  time.Time
	mu         sync.Mutex

	// Token consumption tracking (sliding window)
	tokenWindow   []tokenUsage
	tokenWindowMu sync.Mutex

	metrics   RateLimiterMetrics
	metricsMu sync.RWMutex

	stopCh chan struct{}
	closed atomic.Bool
}

type tokenUsage struct {
	timestamp time.Time
	tokens    int64
}

// RateLimiterMetrics tracks rate limiter activity.
type RateLimiterMetrics struct {
	TotalRequests     int64
	DelayedRequests   int64
	DroppedRequests   int64
	TokensConsumed    int64
	CurrentQueueDepth int64
	LastDelayTime     time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	def := DefaultRateLimiterConfig()
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = def.RequestsPerSecond
	}
	if config.BurstCapacity <= 0 {
		config.BurstCapacity = def.BurstCapacity
	}
	if config.QueueTimeout <= 0 {
		config.QueueTimeout = def.QueueTimeout
	}

	return &RateLimiter{
		config:      config,
		tokens:      float64(config.BurstCapacity),
		maxTokens:   float64(config.BurstCapacity),
		refillRate:  config.RequestsPerSecond,
		lastRefill:  time.Now(),
		tokenWindow: make([]tokenUsage, 0, 100),
		stopCh:      make(chan struct{}),
	}
}

// Wait blocks until a request may start, the queue timeout elapses or ctx
// is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if !rl.config.Enabled {
		return nil
	}
	if rl.closed.Load() {
		return ErrRateLimiterClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rl.addQueueDepth(1)
	defer rl.addQueueDepth(-1)

	deadline := time.NewTimer(rl.config.QueueTimeout)
	defer deadline.Stop()

	delayed := false
	for {
		wait := rl.reserve()
		if wait == 0 {
			break
		}
		if !delayed {
			delayed = true
			rl.recordMetric("delayed", 0)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			rl.recordMetric("dropped", 0)
			return ctx.Err()
		case <-deadline.C:
			rl.recordMetric("dropped", 0)
			return fmt.Errorf("rate limiter queue timeout after %v", rl.config.QueueTimeout)
		case <-rl.stopCh:
			return ErrRateLimiterClosed
		}
	}

	rl.recordMetric("request", 0)
	return nil
}

// reserve takes a request slot and returns zero, or returns how long to
// wait before trying again.
func (rl *RateLimiter) reserve() time.Duration {
	if budget := rl.config.TokensPerMinute; budget > 0 && rl.GetTokenUsageLastMinute() >= budget {
		return 250 * time.Millisecond
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.maxTokens, rl.tokens+elapsed*rl.refillRate)
	rl.lastRefill = now

	if gap := rl.config.MinDelay - now.Sub(rl.lastStart); !rl.lastStart.IsZero() && gap > 0 {
		return gap
	}
	if rl.tokens < 1.0 {
		return time.Duration((1.0 - rl.tokens) / rl.refillRate * float64(time.Second))
	}

	rl.tokens -= 1.0
	rl.lastStart = now
	return 0
}

// RecordTokenUsage records token consumption for the per-minute budget.
func (rl *RateLimiter) RecordTokenUsage(tokens int64) {
	rl.tokenWindowMu.Lock()
	defer rl.tokenWindowMu.Unlock()

	now := time.Now()
	rl.tokenWindow = append(rl.tokenWindow, tokenUsage{timestamp: now, tokens: tokens})

	// Remove entries older than 1 minute
	cutoff := now.Add(-1 * time.Minute)
	i := 0
	for i < len(rl.tokenWindow) && !rl.tokenWindow[i].timestamp.After(cutoff) {
		i++
	}
	rl.tokenWindow = rl.tokenWindow[i:]

	rl.recordMetric("tokens", tokens)
}

// GetTokenUsageLastMinute returns token consumption in the last minute.
func (rl *RateLimiter) GetTokenUsageLastMinute() int64 {
	rl.tokenWindowMu.Lock()
	defer rl.tokenWindowMu.Unlock()

	var total int64
	cutoff := time.Now().Add(-1 * time.Minute)
	for _, usage := range rl.tokenWindow {
		if usage.timestamp.After(cutoff) {
			total += usage.tokens
		}
	}
	return total
}

func (rl *RateLimiter) recordMetric(event string, value int64) {
	rl.metricsMu.Lock()
	defer rl.metricsMu.Unlock()

	switch event {
	case "request":
		rl.metrics.TotalRequests++
	case "delayed":
		rl.metrics.DelayedRequests++
		rl.metrics.LastDelayTime = time.Now()
	case "dropped":
		rl.metrics.DroppedRequests++
	case "tokens":
		rl.metrics.TokensConsumed += value
	}
}

func (rl *RateLimiter) addQueueDepth(delta int64) {
	rl.metricsMu.Lock()
	rl.metrics.CurrentQueueDepth += delta
	rl.metricsMu.Unlock()
}

// GetMetrics returns current rate limiter metrics.
func (rl *RateLimiter) GetMetrics() RateLimiterMetrics {
	rl.metricsMu.RLock()
	defer rl.metricsMu.RUnlock()
	return rl.metrics
}

// Close stops the rate limiter and releases waiting requests.
func (rl *RateLimiter) Close() error {
	if !rl.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(rl.stopCh)

	m := rl.GetMetrics()
	rl.config.Logger.Debug("rate limiter stopped",
		zap.Int64("total_requests", m.TotalRequests),
		zap.Int64("delayed_requests", m.DelayedRequests),
		zap.Int64("dropped_requests", m.DroppedRequests),
		zap.Int64("tokens_consumed", m.TokensConsumed),
	)
	return nil
}
