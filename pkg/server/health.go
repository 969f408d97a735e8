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
	"fmt"
	"time"

	"github.com/teradata-labs/insight/pkg/types"
)

// ValidateProvider performs a preflight check on the configured model.
// Called during server startup to fail fast on bad keys or endpoints.
func ValidateProvider(ctx context.Context, provider types.LLMProvider) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := provider.Chat(checkCtx, []types.Message{types.UserMessage("ping")}, nil)
	if err != nil {
		return fmt.Errorf("LLM provider preflight check failed (%s/%s): %w", provider.Name(), provider.Model(), err)
	}
	return nil
}
