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
	"fmt"

	"github.com/teradata-labs/insight/pkg/types"
)

// ErrNoUserMessage is returned when a conversation does not end with a user
// message.
var ErrNoUserMessage = errors.New("conversation must end with a user message")

// Conversation is an immutable sequence of messages. Append returns a new
// Conversation and never changes the messages visible through the receiver.
type Conversation struct {
	messages []types.Message
}

// NewConversation copies msgs into a new Conversation.
func NewConversation(msgs ...types.Message) Conversation {
	return Conversation{messages: append([]types.Message(nil), msgs...)}
}

// Append returns a Conversation with msgs added at the end.
func (c Conversation) Append(msgs ...types.Message) Conversation {
	out := make([]types.Message, 0, len(c.messages)+len(msgs))
	out = append(out, c.messages...)
	out = append(out, msgs...)
	return Conversation{messages: out}
}

// Messages returns a copy of the messages.
func (c Conversation) Messages() []types.Message {
	return append([]types.Message(nil), c.messages...)
}

// Len returns the number of messages.
func (c Conversation) Len() int {
	return len(c.messages)
}

// Last returns the newest message.
func (c Conversation) Last() (types.Message, bool) {
	if len(c.messages) == 0 {
		return types.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Validate checks a client-supplied history: only user and assistant text
// turns, ending with a non-empty user message.
func (c Conversation) Validate() error {
	last, ok := c.Last()
	if !ok || last.Role != types.RoleUser || last.Content == "" {
		return ErrNoUserMessage
	}
	for i, msg := range c.messages {
		switch msg.Role {
		case types.RoleUser, types.RoleAssistant:
		default:
			return fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}
	return nil
}
