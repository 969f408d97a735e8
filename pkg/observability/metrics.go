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

// Package observability exposes the Prometheus metrics recorded by the chat
// loop, the tool executor, the warehouse client and the HTTP server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insight"

var (
	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ToolCallsTotal counts tool executions by outcome.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration observes tool execution time.
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tools",
			Name:      "duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// WarehouseQueriesTotal counts warehouse queries by backend and outcome.
	WarehouseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "queries_total",
			Help:      "Total warehouse queries",
		},
		[]string{"backend", "operation", "status"},
	)

	// WarehouseQueryDuration observes warehouse latency.
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "warehouse",
			Name:      "query_duration_seconds",
			Help:      "Warehouse query latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend", "operation"},
	)

	// LLMRequestsTotal counts model calls.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total language model requests",
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal counts tokens reported by providers.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens consumed",
		},
		[]string{"provider", "direction"},
	)

	// ChatIterations observes how many model calls a chat needed.
	ChatIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "iterations",
			Help:      "Model calls per chat request",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 15, 20},
		},
	)

	// ChatOutcomesTotal counts chat terminations by reason.
	ChatOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "outcomes_total",
			Help:      "Chat loop terminations by reason",
		},
		[]string{"reason"},
	)

	// SearchRequestsTotal counts web search provider calls.
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Web search provider requests",
		},
		[]string{"provider", "status"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordToolCall records one tool execution.
func RecordToolCall(tool string, success bool, d time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordWarehouseQuery records one warehouse operation.
func RecordWarehouseQuery(backend, operation string, d time.Duration, err error) {
	WarehouseQueriesTotal.WithLabelValues(backend, operation, statusLabel(err)).Inc()
	WarehouseQueryDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
}

// RecordLLMRequest records one model call and its token usage.
func RecordLLMRequest(provider string, inputTokens, outputTokens int, err error) {
	LLMRequestsTotal.WithLabelValues(provider, statusLabel(err)).Inc()
	if inputTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordChat records the end of one chat loop.
func RecordChat(iterations int, reason string) {
	ChatIterations.Observe(float64(iterations))
	ChatOutcomesTotal.WithLabelValues(reason).Inc()
}

// RecordSearch records one web search provider call.
func RecordSearch(provider string, err error) {
	SearchRequestsTotal.WithLabelValues(provider, statusLabel(err)).Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(route, method, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
