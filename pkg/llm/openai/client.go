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

// Package openai provides the OpenAI-compatible chat completions provider.
// Any endpoint that speaks the chat completions API with function tools
// (OpenAI, Azure OpenAI, vLLM, LiteLLM, Ollama) can be used through BaseURL.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

// Default OpenAI configuration values.
// Can be overridden via environment variables:
//   - OPENAI_DEFAULT_MODEL
//   - OPENAI_BASE_URL
const (
	DefaultOpenAIModel     = "gpt-4.1"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultOpenAITimeout   = 120 * time.Second
	DefaultOpenAIMaxTokens = 4096
)

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Client implements types.LLMProvider over the chat completions API.
type Client struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient creates a new OpenAI client. The SDK's own retries are disabled:
// a failed model call ends the chat.
func NewClient(config Config) *Client {
	if config.Model == "" {
		if envModel := os.Getenv("OPENAI_DEFAULT_MODEL"); envModel != "" {
			config.Model = envModel
		} else {
			config.Model = DefaultOpenAIModel
		}
	}
	if config.BaseURL == "" {
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			config.BaseURL = envURL
		} else {
			config.BaseURL = DefaultOpenAIBaseURL
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultOpenAITimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIMaxTokens
	}

	client := openai.NewClient(
		option.WithBaseURL(config.BaseURL),
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(config.Timeout),
		option.WithMaxRetries(0),
	)

	return &Client{
		client:      client,
		model:       config.Model,
		maxTokens:   int64(config.MaxTokens),
		temperature: config.Temperature,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a conversation to the model and returns the response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []shuttle.Definition) (*types.LLMResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(messages, tools))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	return convertResponse(resp)
}

// ChatStream requests a streamed completion and passes each content delta to
// onToken. Tool call fragments are accumulated into the returned response.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, tools []shuttle.Definition, onToken types.TokenCallback) (*types.LLMResponse, error) {
	params := c.params(messages, tools)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onToken != nil {
			onToken(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai chat stream failed: %w", err)
	}
	return convertResponse(&acc.ChatCompletion)
}

func (c *Client) params(messages []types.Message, tools []shuttle.Definition) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            convertMessages(messages),
		MaxCompletionTokens: openai.Int(c.maxTokens),
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}
	return params
}

// convertMessages converts conversation messages to chat completion params.
func convertMessages(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case types.RoleAssistant:
			param := openai.AssistantMessage(msg.Content)
			for _, tc := range msg.ToolCalls {
				param.OfAssistant.ToolCalls = append(param.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: encodeArguments(tc.Input),
						},
					},
				})
			}
			out = append(out, param)
		case types.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolUseID))
		}
	}
	return out
}

func encodeArguments(input map[string]any) string {
	if len(input) == 0 {
		return "{}"
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// convertTools converts tool definitions to function tools.
func convertTools(tools []shuttle.Definition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, def := range tools {
		params := openai.FunctionParameters{"type": "object", "properties": map[string]any{}}
		if def.InputSchema != nil {
			params = openai.FunctionParameters(def.InputSchema.ToMap())
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        def.Name,
					Description: openai.String(def.Description),
					Parameters:  params,
				},
			},
		})
	}
	return out
}

// convertResponse converts the first choice into an LLMResponse. Tool
// arguments that are not valid JSON surface as a call with no input so the
// executor reports the missing arguments back to the model.
func convertResponse(resp *openai.ChatCompletion) (*types.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	choice := resp.Choices[0]

	llmResp := &types.LLMResponse{
		Content:    choice.Message.Content,
		StopReason: stopReason(string(choice.FinishReason)),
		Usage: types.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
		Metadata: map[string]any{
			"model":         resp.Model,
			"finish_reason": string(choice.FinishReason),
			"id":            resp.ID,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				input = map[string]any{}
			}
		}
		llmResp.ToolCalls = append(llmResp.ToolCalls, types.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return llmResp, nil
}

func stopReason(finish string) string {
	switch finish {
	case "stop":
		return types.StopEndTurn
	case "length":
		return types.StopMaxTokens
	case "tool_calls", "function_call":
		return types.StopToolUse
	default:
		return finish
	}
}

var _ types.StreamingLLMProvider = (*Client)(nil)
