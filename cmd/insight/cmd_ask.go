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
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/insight/internal/log"
	"github.com/teradata-labs/insight/pkg/agent"
	"github.com/teradata-labs/insight/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and stream the answer",
	Long: `Run one chat turn from the terminal. The answer is printed as the model
produces it, exactly as POST /api/chat would stream it.`,
	Example: `  insight ask "What were total sales last month by branch?"`,
	Args:    cobra.MinimumNArgs(1),
	Run:     runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(config, log.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	conv := agent.NewConversation(types.Message{
		Role:    types.RoleUser,
		Content: strings.Join(args, " "),
	})
	for chunk, err := range a.agent.Run(ctx, conv) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			a.Close()
			os.Exit(1)
		}
		fmt.Print(chunk)
	}
	fmt.Println()
}
