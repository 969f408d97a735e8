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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	insightconfig "github.com/teradata-labs/insight/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage insight configuration",
	Long:  `Manage configuration files and secrets for insight.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate example configuration file",
	Long:  `Generate an example insight.yaml in the data directory ($INSIGHT_DATA_DIR or ~/.insight).`,
	Run:   runConfigInit,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key-name]",
	Short: "Save a secret to the system keyring",
	Long: `Save a secret to the system keyring.

The value is stored in your system's secure credential storage
(Keychain on macOS, Credential Manager on Windows, Secret Service on Linux).

Run 'insight config list-keys' to see available key names.`,
	Args: cobra.ExactArgs(1),
	Run:  runConfigSetKey,
}

var configGetKeyCmd = &cobra.Command{
	Use:   "get-key [key-name]",
	Short: "Retrieve a secret from the system keyring",
	Long:  `Retrieve a secret from the system keyring (masked, for verification).`,
	Args:  cobra.ExactArgs(1),
	Run:   runConfigGetKey,
}

var configDeleteKeyCmd = &cobra.Command{
	Use:   "delete-key [key-name]",
	Short: "Delete a secret from the system keyring",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigDeleteKey,
}

var configListKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List available secret keys",
	Run:   runConfigListKeys,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Show the effective configuration after flags, environment, config file and keyring are merged.`,
	Run:   runConfigShow,
}

func init() {
	configInitCmd.Flags().String("provider", "openai", "LLM provider for the example (openai, anthropic, bedrock, ollama)")
	configInitCmd.Flags().String("driver", "clickhouse", "warehouse driver for the example (clickhouse, postgres, mysql, sqlite)")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configGetKeyCmd)
	configCmd.AddCommand(configDeleteKeyCmd)
	configCmd.AddCommand(configListKeysCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	provider, _ := cmd.Flags().GetString("provider")
	driver, _ := cmd.Flags().GetString("driver")
	force, _ := cmd.Flags().GetBool("force")

	configDir := insightconfig.GetDataDir()
	configPath := filepath.Join(configDir, DefaultConfigFileName+".yaml")

	if err := os.MkdirAll(configDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		os.Exit(1)
	}

	content, err := GenerateExampleConfig(provider, driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := writeFileIfAbsent(configPath, []byte(content), force); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Created config file: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Store your secrets in the system keyring:")
	fmt.Println("     insight config set-key llm_api_key")
	if driver != "sqlite" && driver != "clickhouse" {
		fmt.Println("     insight config set-key warehouse_password")
	}
	fmt.Println("  2. Start the server:")
	fmt.Println("     insight serve")
}

func runConfigSetKey(cmd *cobra.Command, args []string) {
	keyName := args[0]

	if !isSecretKey(keyName) {
		fmt.Fprintf(os.Stderr, "Invalid key name: %s\n", keyName)
		fmt.Fprintf(os.Stderr, "Available keys:\n")
		for _, k := range ListAvailableSecretKeys() {
			fmt.Fprintf(os.Stderr, "  - %s\n", k)
		}
		os.Exit(1)
	}

	// Read secret from stdin (without echo)
	fmt.Printf("Enter %s (input hidden): ", keyName)
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	secret := string(secretBytes)
	if secret == "" {
		fmt.Fprintf(os.Stderr, "Secret cannot be empty\n")
		os.Exit(1)
	}

	if err := SaveSecretToKeyring(keyName, secret); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving to keyring: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Saved %s to system keyring\n", keyName)
}

func runConfigGetKey(cmd *cobra.Command, args []string) {
	keyName := args[0]

	secret, err := GetSecretFromKeyring(keyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving key: %v\n", err)
		fmt.Fprintf(os.Stderr, "Key not found in keyring. Set it with: insight config set-key %s\n", keyName)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", keyName, maskSecret(secret))
}

func runConfigDeleteKey(cmd *cobra.Command, args []string) {
	keyName := args[0]

	if err := DeleteSecretFromKeyring(keyName); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Deleted %s from system keyring\n", keyName)
}

func runConfigListKeys(cmd *cobra.Command, args []string) {
	fmt.Println("Available secret keys:")
	for _, k := range ListAvailableSecretKeys() {
		status := "(not set)"
		if v, err := GetSecretFromKeyring(k); err == nil && v != "" {
			status = "(set)"
		}
		fmt.Printf("  %-20s %s\n", k, status)
	}
	fmt.Println()
	fmt.Println("Set a key with:")
	fmt.Println("  insight config set-key <key-name>")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	fmt.Println("Current Configuration:")
	fmt.Println("======================")
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Printf("File: %s\n", f)
	}
	fmt.Printf("Data dir: %s\n", config.DataDir)
	fmt.Println()

	fmt.Println("Server:")
	fmt.Printf("  Addr: %s\n", config.Server.Addr)
	fmt.Printf("  Chat timeout: %s\n", config.Server.ChatTimeout)
	fmt.Printf("  CORS: %t\n", config.Server.CORS.Enabled)
	fmt.Println()

	fmt.Println("LLM:")
	fmt.Printf("  Provider: %s\n", config.LLM.Provider)
	fmt.Printf("  Model: %s\n", orNotSet(config.LLM.Model))
	if config.LLM.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", config.LLM.BaseURL)
	}
	fmt.Printf("  API Key: %s\n", secretStatus(config.LLM.APIKey))
	fmt.Printf("  Max Tokens: %d\n", config.LLM.MaxTokens)
	fmt.Println()

	fmt.Println("Warehouse:")
	fmt.Printf("  Driver: %s\n", config.Warehouse.Driver)
	if config.Warehouse.DSN != "" {
		fmt.Printf("  DSN: %s\n", maskSecret(config.Warehouse.DSN))
	} else {
		fmt.Printf("  Host: %s:%d\n", config.Warehouse.Host, config.Warehouse.Port)
		fmt.Printf("  Database: %s\n", orNotSet(config.Warehouse.Database))
		fmt.Printf("  User: %s\n", orNotSet(config.Warehouse.User))
		fmt.Printf("  Password: %s\n", secretStatus(config.Warehouse.Password))
	}
	fmt.Println()

	fmt.Println("Agent:")
	fmt.Printf("  Max iterations: %d\n", config.Agent.MaxIterations)
	fmt.Printf("  Tool timeout: %s\n", config.Agent.ToolTimeout)
	fmt.Printf("  Parallel tools: %t\n", config.Agent.ParallelTools)
	fmt.Println()

	fmt.Println("Web search:")
	fmt.Printf("  Enabled: %t\n", config.Search.Enabled)
	if config.Search.Enabled {
		fmt.Printf("  Primary: %s\n", config.Search.Primary)
		fmt.Printf("  Secondary: %s\n", config.Search.Secondary)
		fmt.Printf("  Tavily key: %s\n", secretStatus(config.Search.TavilyAPIKey))
		fmt.Printf("  Brave key: %s\n", secretStatus(config.Search.BraveAPIKey))
		fmt.Printf("  SerpAPI key: %s\n", secretStatus(config.Search.SerpAPIAPIKey))
	}
	fmt.Println()

	fmt.Println("Logging:")
	fmt.Printf("  Level: %s\n", config.Logging.Level)
	fmt.Printf("  Format: %s\n", config.Logging.Format)
}

func secretStatus(s string) string {
	if s == "" {
		return "(not set)"
	}
	return maskSecret(s)
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
