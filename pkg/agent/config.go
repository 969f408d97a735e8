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
package agent

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

// DefaultMaxIterations bounds the model calls of one chat.
const DefaultMaxIterations = 10

// Config configures an Agent. Provider and either Executor or
// Registry+Handler are required.
type Config struct {
	// Provider is the chat model.
	Provider types.LLMProvider

	// Executor runs tool calls. When nil one is built from Registry and
	// Handler with ToolTimeout.
	Executor *shuttle.Executor
	Registry *shuttle.Registry
	Handler  shuttle.Handler

	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string

	// MaxIterations caps model calls per chat (default 10).
	MaxIterations int

	// ToolTimeout bounds one tool call (default 30s).
	ToolTimeout time.Duration

	// ParallelTools runs the tool calls of one turn concurrently.
	ParallelTools bool

	// MaxContextTokens overrides the model's context window for history
	// trimming. Zero resolves it from the model name.
	MaxContextTokens int

	// Now is the clock used for the date line of the system prompt.
	Now func() time.Time

	Logger *zap.Logger
}

// ConfigFile is the agent section of the configuration file.
type ConfigFile struct {
	MaxIterations    int           `mapstructure:"max_iterations" yaml:"max_iterations"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout" yaml:"tool_timeout"`
	ParallelTools    bool          `mapstructure:"parallel_tools" yaml:"parallel_tools"`
	MaxContextTokens int           `mapstructure:"max_context_tokens" yaml:"max_context_tokens,omitempty"`
	SystemPromptFile string        `mapstructure:"system_prompt_file" yaml:"system_prompt_file,omitempty"`
}

var (
	errNoProvider = errors.New("agent: provider is required")
	errNoTools    = errors.New("agent: executor or registry and handler are required")
)

func (c *Config) setDefaults() error {
	if c.Provider == nil {
		return errNoProvider
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = shuttle.DefaultToolTimeout
	}
	if c.Executor == nil {
		if c.Registry == nil || c.Handler == nil {
			return errNoTools
		}
		c.Executor = shuttle.NewExecutor(c.Registry, c.Handler,
			shuttle.WithTimeout(c.ToolTimeout),
			shuttle.WithLogger(c.Logger))
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}
