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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/observability"
)

// DefaultToolTimeout bounds a single tool call.
const DefaultToolTimeout = 30 * time.Second

// Executor is the handler boundary: it resolves names against the registry,
// validates arguments, applies the per-call timeout and turns panics into
// structured results. Execute never returns a Go error.
type Executor struct {
	registry *Registry
	handler  Handler
	timeout  time.Duration
	logger   *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry, handler Handler, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		handler:  handler,
		timeout:  DefaultToolTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry of published tools.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs the named tool with args.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (result *Result) {
	start := time.Now()
	defer func() {
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		observability.RecordToolCall(metricName(e.registry, name), result.Success, time.Since(start))
		fields := []zap.Field{
			zap.String("tool", name),
			zap.Bool("success", result.Success),
			zap.Int64("duration_ms", result.ExecutionTimeMs),
		}
		if result.Error != nil {
			fields = append(fields, zap.String("error_code", result.Error.Code), zap.String("error", result.Error.Message))
		}
		e.logger.Debug("tool executed", fields...)
	}()

	def, ok := e.registry.Get(name)
	if !ok {
		return Dispatch(ctx, e.handler, Unknown{Name: name})
	}

	args = normalizeArguments(def.InputSchema, args)
	problems, err := ValidateArguments(def.InputSchema, args)
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error(), "", nil)
	}
	if len(problems) > 0 {
		return Failure(CodeInvalidArguments,
			fmt.Sprintf("invalid arguments for %s: %s", name, strings.Join(problems, "; ")),
			fmt.Sprintf("Call %s again with arguments matching its parameter schema.", name),
			nil)
	}

	return e.run(ctx, ParseCall(name, args))
}

func (e *Executor) run(ctx context.Context, call Call) (result *Result) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", zap.String("tool", call.ToolName()), zap.Any("panic", r))
			result = Failure(CodeExecutionFailed, fmt.Sprintf("tool %s failed unexpectedly: %v", call.ToolName(), r), "", nil)
		}
	}()

	result = Dispatch(ctx, e.handler, call)
	if result == nil {
		result = Failure(CodeExecutionFailed, fmt.Sprintf("tool %s returned no result", call.ToolName()), "", nil)
	}
	if !result.Success && result.Error != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			result.Error.Code = CodeTimeout
			if result.Error.Suggestion == "" {
				result.Error.Suggestion = "The call timed out. Try a narrower query, for example with a LIMIT or a tighter date range."
			}
		case errors.Is(ctx.Err(), context.Canceled):
			result.Error.Code = CodeCancelled
		}
	}
	return result
}

// metricName keeps label cardinality bounded when the model invents names.
func metricName(r *Registry, name string) string {
	if r.IsRegistered(name) {
		return name
	}
	return "unknown"
}
