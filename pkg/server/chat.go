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
package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/agent"
	"github.com/teradata-labs/insight/pkg/types"
)

// statusClientClosedRequest is logged when the client goes away before the
// first byte.
const statusClientClosedRequest = 499

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

func (r chatRequest) conversation() (agent.Conversation, error) {
	if len(r.Messages) == 0 {
		return agent.Conversation{}, errors.New("messages must not be empty")
	}
	msgs := make([]types.Message, 0, len(r.Messages))
	for i, m := range r.Messages {
		switch m.Role {
		case types.RoleUser:
			msgs = append(msgs, types.UserMessage(m.Content))
		case types.RoleAssistant:
			msgs = append(msgs, types.AssistantMessage(m.Content))
		default:
			return agent.Conversation{}, fmt.Errorf("messages[%d]: role must be %q or %q", i, types.RoleUser, types.RoleAssistant)
		}
	}
	conv := agent.NewConversation(msgs...)
	if err := conv.Validate(); err != nil {
		return agent.Conversation{}, err
	}
	return conv, nil
}

// handleChat runs the chat loop and streams the answer as plain text. The
// first chunk is pulled before any header is written, so failures up to that
// point still get a JSON error status.
func (s *Server) handleChat(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	conv, err := req.conversation()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ChatTimeout)
	defer cancel()

	next, stop := iter.Pull2(s.agent.Run(ctx, conv))
	defer stop()

	chunk, err, ok := next()
	if err != nil {
		s.chatFailed(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	for ok {
		if _, werr := c.Writer.WriteString(chunk); werr != nil {
			s.logger.Debug("client went away during stream", zap.Error(werr))
			return
		}
		c.Writer.Flush()

		chunk, err, ok = next()
		if err != nil {
			// Headers are gone; ending the stream is the only signal left.
			s.logger.Error("chat failed after streaming began",
				zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
			_ = c.Error(err)
			return
		}
	}
}

func (s *Server) chatFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, agent.ErrNoUserMessage):
		abortWithError(c, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil:
		_ = c.Error(err)
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, errors.New("chat timed out"))
	default:
		abortWithError(c, http.StatusInternalServerError, err)
	}
}
