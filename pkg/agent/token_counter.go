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
	"encoding/json"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/types"
)

// messageOverhead approximates the role and framing tokens of one message.
const messageOverhead = 10

// TokenCounter estimates prompt size for history trimming.
// Uses tiktoken with cl100k_base encoding, a close enough approximation for
// every supported model family.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalTokenCounter *TokenCounter
	counterInitOnce    sync.Once
)

// GetTokenCounter returns a singleton token counter instance.
func GetTokenCounter() *TokenCounter {
	counterInitOnce.Do(func() {
		tkm, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// The BPE ranks could not be loaded; fall back to len/4.
			globalTokenCounter = &TokenCounter{}
			return
		}
		globalTokenCounter = &TokenCounter{encoder: tkm}
	})
	return globalTokenCounter
}

// CountTokens returns the token count for text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.encoder == nil {
		return len(text) / 4
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// MessageTokens estimates one message including framing overhead.
func (tc *TokenCounter) MessageTokens(msg types.Message) int {
	total := messageOverhead + tc.CountTokens(msg.Content)
	for _, call := range msg.ToolCalls {
		total += tc.CountTokens(call.Name)
		if len(call.Input) > 0 {
			if data, err := json.Marshal(call.Input); err == nil {
				total += tc.CountTokens(string(data))
			}
		}
	}
	return total
}

// EstimateMessagesTokens estimates token count for a slice of messages.
func (tc *TokenCounter) EstimateMessagesTokens(messages []types.Message) int {
	total := 0
	for _, msg := range messages {
		total += tc.MessageTokens(msg)
	}
	return total
}

// EstimateToolTokens estimates the prompt cost of published tool definitions.
func (tc *TokenCounter) EstimateToolTokens(defs []shuttle.Definition) int {
	total := 0
	for _, def := range defs {
		total += messageOverhead + tc.CountTokens(def.Name) + tc.CountTokens(def.Description)
		if def.InputSchema != nil {
			if data, err := json.Marshal(def.InputSchema.ToMap()); err == nil {
				total += tc.CountTokens(string(data))
			}
		}
	}
	return total
}
