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

import "strings"

// ModelContextLimits defines the context window and output reservation for a model.
type ModelContextLimits struct {
	MaxContextTokens     int // Total context window size
	ReservedOutputTokens int // Tokens reserved for model output
}

// Available returns the tokens usable for the prompt.
func (l ModelContextLimits) Available() int {
	return l.MaxContextTokens - l.ReservedOutputTokens
}

// modelContextLimits is keyed by model base name. Versioned names match
// their longest known prefix.
var modelContextLimits = map[string]ModelContextLimits{
	// OpenAI
	"gpt-4.1":       {MaxContextTokens: 1047576, ReservedOutputTokens: 32768},
	"gpt-4o":        {MaxContextTokens: 128000, ReservedOutputTokens: 16384},
	"gpt-4-turbo":   {MaxContextTokens: 128000, ReservedOutputTokens: 12800},
	"gpt-4":         {MaxContextTokens: 8192, ReservedOutputTokens: 819},
	"gpt-3.5-turbo": {MaxContextTokens: 16385, ReservedOutputTokens: 1638},
	"o3":            {MaxContextTokens: 200000, ReservedOutputTokens: 100000},
	"o4-mini":       {MaxContextTokens: 200000, ReservedOutputTokens: 100000},

	// Anthropic Claude, direct and Bedrock model IDs
	"claude-":              {MaxContextTokens: 200000, ReservedOutputTokens: 20000},
	"anthropic.claude-":    {MaxContextTokens: 200000, ReservedOutputTokens: 20000},
	"us.anthropic.claude-": {MaxContextTokens: 200000, ReservedOutputTokens: 20000},
	"eu.anthropic.claude-": {MaxContextTokens: 200000, ReservedOutputTokens: 20000},

	// Common Ollama models
	"llama3.3": {MaxContextTokens: 128000, ReservedOutputTokens: 12800},
	"llama3.2": {MaxContextTokens: 128000, ReservedOutputTokens: 12800},
	"llama3.1": {MaxContextTokens: 128000, ReservedOutputTokens: 12800},
	"llama3":   {MaxContextTokens: 8192, ReservedOutputTokens: 819},
	"qwen2.5":  {MaxContextTokens: 32000, ReservedOutputTokens: 3200},
	"qwen3":    {MaxContextTokens: 40960, ReservedOutputTokens: 4096},
	"mistral":  {MaxContextTokens: 32000, ReservedOutputTokens: 3200},
}

// GetModelContextLimits returns the limits for modelName, or nil if the
// model is unknown. The longest matching prefix wins, so "llama3.1:8b"
// resolves to "llama3.1" rather than "llama3".
func GetModelContextLimits(modelName string) *ModelContextLimits {
	if limits, ok := modelContextLimits[modelName]; ok {
		return &limits
	}

	var bestMatch string
	var bestLimits *ModelContextLimits
	for baseModel, limits := range modelContextLimits {
		if strings.HasPrefix(modelName, baseModel) && len(baseModel) > len(bestMatch) {
			bestMatch = baseModel
			limitsCopy := limits
			bestLimits = &limitsCopy
		}
	}
	return bestLimits
}

// GetProviderDefaultLimits returns defaults for a provider whose model is
// not in the lookup table.
func GetProviderDefaultLimits(provider string) ModelContextLimits {
	switch provider {
	case "anthropic", "bedrock":
		return ModelContextLimits{MaxContextTokens: 200000, ReservedOutputTokens: 20000}
	case "openai":
		return ModelContextLimits{MaxContextTokens: 128000, ReservedOutputTokens: 12800}
	default:
		return ModelContextLimits{MaxContextTokens: 32000, ReservedOutputTokens: 3200}
	}
}

// ResolveContextLimits picks the limits to trim history against:
// explicit configuration first, then the model table, then provider
// defaults. An explicit max reserves 10% for output.
func ResolveContextLimits(provider, model string, configuredMax int) ModelContextLimits {
	if configuredMax > 0 {
		return ModelContextLimits{
			MaxContextTokens:     configuredMax,
			ReservedOutputTokens: configuredMax / 10,
		}
	}
	if limits := GetModelContextLimits(model); limits != nil {
		return *limits
	}
	return GetProviderDefaultLimits(provider)
}
