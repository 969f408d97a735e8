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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/insight/internal/log"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [table]",
	Short: "List warehouse tables or describe one",
	Long:  `Show what the assistant sees through its listTables and describeTable tools.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) {
	backend, err := newWarehouse(config, log.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if len(args) == 0 {
		resources, err := backend.ListResources(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing tables: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(w, "NAME\tTYPE")
		for _, r := range resources {
			fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Type)
		}
		return
	}

	schema, err := backend.GetSchema(ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error describing %s: %v\n", args[0], err)
		os.Exit(1)
	}
	fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE")
	for _, c := range schema.Fields {
		fmt.Fprintf(w, "%s\t%s\t%t\n", c.Name, c.Type, c.Nullable)
	}
}
