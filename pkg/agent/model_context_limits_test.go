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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelContextLimits(t *testing.T) {
	tests := []struct {
		model       string
		expectedMax int
		shouldFind  bool
	}{
		{"gpt-4o", 128000, true},
		{"gpt-4o-mini", 128000, true},
		{"gpt-4.1-mini", 1047576, true},
		{"gpt-4", 8192, true},
		{"claude-sonnet-4-5-20250929", 200000, true},
		{"us.anthropic.claude-sonnet-4-5-20250929-v1:0", 200000, true},
		{"llama3.1:8b", 128000, true},
		{"llama3:70b", 8192, true},
		{"totally-unknown", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			limits := GetModelContextLimits(tt.model)
			if !tt.shouldFind {
				assert.Nil(t, limits)
				return
			}
			require.NotNil(t, limits)
			assert.Equal(t, tt.expectedMax, limits.MaxContextTokens)
		})
	}
}

func TestResolveContextLimits(t *testing.T) {
	l := ResolveContextLimits("openai", "gpt-4o", 10000)
	assert.Equal(t, ModelContextLimits{MaxContextTokens: 10000, ReservedOutputTokens: 1000}, l)
	assert.Equal(t, 9000, l.Available())

	assert.Equal(t, 200000, ResolveContextLimits("anthropic", "claude-opus-4-1", 0).MaxContextTokens)
	assert.Equal(t, 128000, ResolveContextLimits("openai", "my-finetune", 0).MaxContextTokens)
	assert.Equal(t, 32000, ResolveContextLimits("ollama-local", "mystery", 0).MaxContextTokens)
}
