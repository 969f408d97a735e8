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

// Package agent implements the tool-calling chat loop: the model is
// re-invoked with tool results until it answers in plain text or the
// iteration cap is reached.
package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teradata-labs/insight/pkg/observability"
	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

// ErrIterationLimit marks a chat that was stopped at the iteration cap. It is
// logged, never returned to the caller: the caller receives the partial answer.
var ErrIterationLimit = errors.New("iteration limit reached")

// maxParallelTools bounds concurrent tool calls within one turn.
const maxParallelTools = 4

// Chat outcomes recorded in metrics.
const (
	outcomeCompleted      = "completed"
	outcomeIterationLimit = "iteration_limit"
	outcomeModelError     = "model_error"
	outcomeCancelled      = "cancelled"
	outcomeInvalid        = "invalid"
)

type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAwaitingModel:
		return "awaiting_model"
	case stateExecutingTools:
		return "executing_tools"
	default:
		return "done"
	}
}

// Agent runs chats against one model and one tool set. It holds no per-chat
// state and is safe for concurrent use.
type Agent struct {
	cfg     Config
	tools   []shuttle.Definition
	counter *TokenCounter
	limits  ModelContextLimits
	logger  *zap.Logger
}

// New creates an Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	return &Agent{
		cfg:     cfg,
		tools:   cfg.Executor.Registry().Definitions(),
		counter: GetTokenCounter(),
		limits:  ResolveContextLimits(cfg.Provider.Name(), cfg.Provider.Model(), cfg.MaxContextTokens),
		logger:  cfg.Logger.With(zap.String("provider", cfg.Provider.Name()), zap.String("model", cfg.Provider.Model())),
	}, nil
}

// Tools returns the tool definitions published to the model.
func (a *Agent) Tools() []shuttle.Definition {
	return append([]shuttle.Definition(nil), a.tools...)
}

// MaxIterations returns the configured cap.
func (a *Agent) MaxIterations() int {
	return a.cfg.MaxIterations
}

// Run answers the last user message of history. The returned sequence yields
// the answer text and ends; a terminal error is yielded with an empty chunk.
// With a streaming provider, text is yielded as the model writes it,
// including any text it writes before requesting tools; turns are separated
// by a blank line. Otherwise only the final answer is yielded, in one chunk.
// Tool calls and their results are never surfaced.
func (a *Agent) Run(ctx context.Context, history Conversation) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := history.Validate(); err != nil {
			observability.RecordChat(0, outcomeInvalid)
			yield("", err)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var (
			conv       = history
			st         = stateAwaitingModel
			resp       *types.LLMResponse
			iterations int
			lastText   string
			answer     string
			outcome    = outcomeCompleted
			started    = time.Now()

			emitted bool // any text reached the caller
			stopped bool // the caller stopped iterating
		)
		defer func() {
			observability.RecordChat(iterations, outcome)
			a.logger.Info("chat finished",
				zap.String("outcome", outcome),
				zap.Int("iterations", iterations),
				zap.Duration("duration", time.Since(started)))
		}()

		// emit yields text, opening a new paragraph when a turn's first text
		// follows text of an earlier turn.
		emit := func(text string, newTurn bool) {
			if stopped || text == "" {
				return
			}
			if newTurn && emitted {
				text = "\n\n" + text
			}
			emitted = true
			if !yield(text, nil) {
				stopped = true
				cancel()
			}
		}

		for st != stateDone {
			if stopped {
				outcome = outcomeCancelled
				return
			}
			if err := ctx.Err(); err != nil {
				outcome = outcomeCancelled
				yield("", err)
				return
			}

			switch st {
			case stateAwaitingModel:
				iterations++
				streamed := false
				r, err := a.chat(ctx, conv, func(token string) {
					emit(token, !streamed)
					streamed = streamed || token != ""
				})
				if stopped {
					outcome = outcomeCancelled
					return
				}
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						outcome = outcomeCancelled
						yield("", ctxErr)
						return
					}
					outcome = outcomeModelError
					a.logger.Error("model call failed", zap.Int("iteration", iterations), zap.Error(err))
					yield("", fmt.Errorf("model call failed: %w", err))
					return
				}
				resp = r
				if strings.TrimSpace(resp.Content) != "" {
					lastText = resp.Content
				}

				switch {
				case !resp.HasToolCalls():
					if !streamed {
						answer = resp.Content
					}
					st = stateDone
				case iterations >= a.cfg.MaxIterations:
					outcome = outcomeIterationLimit
					if !emitted {
						answer = lastText
					}
					a.logger.Warn("stopping chat with partial answer",
						zap.Error(ErrIterationLimit),
						zap.Int("max_iterations", a.cfg.MaxIterations),
						zap.Int("pending_tool_calls", len(resp.ToolCalls)))
					st = stateDone
				default:
					st = stateExecutingTools
				}

			case stateExecutingTools:
				calls := assignCallIDs(resp.ToolCalls)
				results := a.executeTools(ctx, calls)
				if err := ctx.Err(); err != nil {
					outcome = outcomeCancelled
					yield("", err)
					return
				}

				turn := make([]types.Message, 0, len(calls)+1)
				turn = append(turn, types.AssistantMessage(resp.Content, calls...))
				for i, call := range calls {
					turn = append(turn, types.ToolMessage(call, results[i]))
				}
				conv = conv.Append(turn...)
				st = stateAwaitingModel
			}
		}

		emit(answer, true)
	}
}

// chat calls the model once, streaming text to onToken when the provider
// supports it.
func (a *Agent) chat(ctx context.Context, conv Conversation, onToken types.TokenCallback) (*types.LLMResponse, error) {
	if streamer, ok := a.cfg.Provider.(types.StreamingLLMProvider); ok {
		return streamer.ChatStream(ctx, a.prompt(conv), a.tools, onToken)
	}
	return a.cfg.Provider.Chat(ctx, a.prompt(conv), a.tools)
}

// Answer runs a chat and collects the whole answer.
func (a *Agent) Answer(ctx context.Context, history Conversation) (string, error) {
	var b strings.Builder
	for chunk, err := range a.Run(ctx, history) {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}

// assignCallIDs returns calls with an ID on every call. Some local models omit
// IDs; results are matched to calls by ID, so one is generated.
func assignCallIDs(calls []types.ToolCall) []types.ToolCall {
	out := make([]types.ToolCall, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		out[i] = call
	}
	return out
}

// executeTools runs the calls of one turn and returns results in call order.
func (a *Agent) executeTools(ctx context.Context, calls []types.ToolCall) []*shuttle.Result {
	results := make([]*shuttle.Result, len(calls))

	if !a.cfg.ParallelTools || len(calls) < 2 {
		for i, call := range calls {
			if ctx.Err() != nil {
				break
			}
			results[i] = a.execute(ctx, call)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(maxParallelTools)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = a.execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Agent) execute(ctx context.Context, call types.ToolCall) *shuttle.Result {
	a.logger.Debug("executing tool", zap.String("tool", call.Name), zap.String("call_id", call.ID))
	return a.cfg.Executor.Execute(ctx, call.Name, call.Input)
}

// prompt builds the messages sent to the model: the system prompt followed
// by as much of the conversation as fits the context window.
func (a *Agent) prompt(conv Conversation) []types.Message {
	system := types.Message{
		Role:    types.RoleSystem,
		Content: buildSystemPrompt(a.cfg.SystemPrompt, a.cfg.Now()),
	}
	budget := a.limits.Available() -
		a.counter.MessageTokens(system) -
		a.counter.EstimateToolTokens(a.tools)

	msgs := conv.Messages()
	trimmed := trimHistory(msgs, budget, a.counter)
	if dropped := len(msgs) - len(trimmed); dropped > 0 {
		a.logger.Debug("trimmed conversation history", zap.Int("dropped_messages", dropped), zap.Int("budget_tokens", budget))
	}
	return append([]types.Message{system}, trimmed...)
}

// trimHistory drops the oldest messages until the rest fits budget. The kept
// history always starts at a user message, so a tool result is never kept
// without the assistant turn that requested it, and the newest user message
// is always kept.
func trimHistory(msgs []types.Message, budget int, counter *TokenCounter) []types.Message {
	sizes := make([]int, len(msgs))
	total := 0
	for i, m := range msgs {
		sizes[i] = counter.MessageTokens(m)
		total += sizes[i]
	}
	if total <= budget {
		return msgs
	}

	lastUser := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == types.RoleUser {
			lastUser = i
			break
		}
	}
	if lastUser < 0 {
		return msgs
	}

	suffix := total
	for i := 0; i < lastUser; i++ {
		if msgs[i].Role == types.RoleUser && suffix <= budget {
			return msgs[i:]
		}
		suffix -= sizes[i]
	}
	return msgs[lastUser:]
}
