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

// Package factory builds the configured chat model provider.
package factory

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/llm"
	"github.com/teradata-labs/insight/pkg/llm/anthropic"
	"github.com/teradata-labs/insight/pkg/llm/openai"
	"github.com/teradata-labs/insight/pkg/types"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderOllama    = "ollama"
)

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// Config is the llm section of the configuration file.
type Config struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	// Bedrock settings
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Profile         string `mapstructure:"profile" yaml:"profile,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	SessionToken    string `mapstructure:"session_token" yaml:"session_token,omitempty"`

	RateLimit llm.RateLimiterConfig `mapstructure:"rate_limit" yaml:"-"`
}

// NewProvider creates the provider named by cfg.Provider (default openai)
// wrapped with rate limiting and metrics. Close the returned provider to
// release the rate limiter.
func NewProvider(cfg Config, logger *zap.Logger) (*llm.InstrumentedProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := newBaseProvider(cfg)
	if err != nil {
		return nil, err
	}

	var limiter *llm.RateLimiter
	if cfg.RateLimit.Enabled {
		rl := cfg.RateLimit
		rl.Logger = logger.Named("ratelimit")
		limiter = llm.NewRateLimiter(rl)
	}

	logger.Info("model provider ready",
		zap.String("provider", base.Name()),
		zap.String("model", base.Model()),
		zap.Bool("rate_limited", limiter != nil))
	return llm.NewInstrumentedProvider(base, limiter, logger), nil
}

func newBaseProvider(cfg Config) (types.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key (llm.api_key or INSIGHT_LLM_API_KEY)")
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaBaseURL
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama provider requires llm.model")
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return openai.NewClient(openai.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     baseURL,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key (llm.api_key or INSIGHT_LLM_API_KEY)")
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})

	case ProviderBedrock:
		return anthropic.NewClient(anthropic.Config{
			Bedrock:         true,
			Model:           cfg.Model,
			Timeout:         cfg.Timeout,
			MaxTokens:       cfg.MaxTokens,
			Temperature:     cfg.Temperature,
			Region:          cfg.Region,
			Profile:         cfg.Profile,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
