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

// Package anthropic provides the Claude provider, talking either to the
// Anthropic API directly or to Claude models hosted on AWS Bedrock.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

const (
	// DefaultAnthropicModel is the default Claude model
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	// DefaultBedrockModel is the default Claude model ID on Bedrock
	DefaultBedrockModel = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	// DefaultBedrockRegion is used when no region is configured
	DefaultBedrockRegion = "us-west-2"
	// DefaultMaxTokens is the default maximum tokens per request
	DefaultMaxTokens = 4096
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	// Bedrock routes requests through AWS Bedrock. Credentials come from the
	// explicit keys, then Profile, then the default AWS chain.
	Bedrock         bool
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Client implements types.LLMProvider for Claude.
type Client struct {
	client      anthropic.Client
	name        string
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient creates a new Claude client. Bedrock mode loads AWS
// configuration, which may fail.
func NewClient(cfg Config) (*Client, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	name := "anthropic"

	if cfg.Bedrock {
		name = "bedrock"
		if cfg.Model == "" {
			cfg.Model = firstNonEmpty(os.Getenv("AWS_BEDROCK_MODEL_ID"), DefaultBedrockModel)
		}
		if cfg.Region == "" {
			cfg.Region = firstNonEmpty(os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION"), DefaultBedrockRegion)
		}

		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		switch {
		case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
		case cfg.Profile != "":
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
		}
		awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		opts = append(opts, bedrock.WithConfig(awsCfg))
	} else {
		if cfg.Model == "" {
			cfg.Model = firstNonEmpty(os.Getenv("ANTHROPIC_DEFAULT_MODEL"), DefaultAnthropicModel)
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:      anthropic.NewClient(opts...),
		name:        name,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a conversation to Claude and returns the response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []shuttle.Definition) (*types.LLMResponse, error) {
	params, err := c.params(messages, tools)
	if err != nil {
		return nil, err
	}
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s messages request failed: %w", c.name, err)
	}
	return convertResponse(message), nil
}

// ChatStream sends a conversation to Claude over a streaming request and
// passes each text delta to onToken as it arrives.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, tools []shuttle.Definition, onToken types.TokenCallback) (*types.LLMResponse, error) {
	params, err := c.params(messages, tools)
	if err != nil {
		return nil, err
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("%s stream: %w", c.name, err)
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" && onToken != nil {
				onToken(text.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s messages stream failed: %w", c.name, err)
	}
	return convertResponse(&message), nil
}

func (c *Client) params(messages []types.Message, tools []shuttle.Definition) (anthropic.MessageNewParams, error) {
	systemPrompt, sdkMessages := convertMessages(messages)
	if len(sdkMessages) == 0 {
		return anthropic.MessageNewParams{}, fmt.Errorf("no valid messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  sdkMessages,
		MaxTokens: c.maxTokens,
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}
	return params, nil
}

// convertMessages splits out the system prompt and converts the rest.
// Consecutive tool results are grouped into a single user turn, which is
// how Claude expects the answers to a multi-tool turn.
func convertMessages(messages []types.Message) (string, []anthropic.MessageParam) {
	var (
		systemPrompts []string
		out           []anthropic.MessageParam
		pending       []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(pending) > 0 {
			out = append(out, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == types.RoleTool {
			isError := msg.ToolResult != nil && !msg.ToolResult.Success
			pending = append(pending, anthropic.NewToolResultBlock(msg.ToolUseID, msg.Content, isError))
			continue
		}
		flush()

		switch msg.Role {
		case types.RoleSystem:
			if msg.Content != "" {
				systemPrompts = append(systemPrompts, msg.Content)
			}
		case types.RoleUser:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case types.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Input != nil {
					input = tc.Input
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		}
	}
	flush()

	return strings.Join(systemPrompts, "\n\n"), out
}

// convertTools converts tool definitions to Claude tools.
func convertTools(tools []shuttle.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, def := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
		if def.InputSchema != nil {
			m := def.InputSchema.ToMap()
			if props, ok := m["properties"]; ok {
				schema.Properties = props
			}
			schema.Required = def.InputSchema.Required
		}
		out[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: schema,
			},
		}
	}
	return out
}

func convertResponse(message *anthropic.Message) *types.LLMResponse {
	resp := &types.LLMResponse{
		StopReason: string(message.StopReason),
		Usage: types.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
			TotalTokens:  int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
		Metadata: map[string]any{
			"model":      string(message.Model),
			"message_id": message.ID,
		},
	}

	for _, block := range message.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			input := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					input = map[string]any{}
				}
			}
			resp.ToolCalls = append(resp.ToolCalls, types.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}
	return resp
}

var _ types.StreamingLLMProvider = (*Client)(nil)
