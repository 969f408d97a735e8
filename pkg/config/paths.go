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

// Package config locates the insight data directory.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "INSIGHT_DATA_DIR"

// GetDataDir returns the insight data directory.
//
// Priority:
// 1. INSIGHT_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.insight (default)
//
// The returned path is always absolute. Tilde (~) in INSIGHT_DATA_DIR is
// expanded to the user's home directory.
//
// This function is called during bootstrap (before the config file is
// loaded) to locate the config file itself, so it reads the environment
// directly rather than through viper.
func GetDataDir() string {
	if dataDir := os.Getenv(DataDirEnv); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".insight"
	}
	return filepath.Join(homeDir, ".insight")
}

// GetSubDir returns a subdirectory within the data directory.
// Example: GetSubDir("catalogs") returns ~/.insight/catalogs
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

// ExpandPath expands a leading ~ and makes path absolute. Config values such
// as the sqlite DSN or the system prompt file go through it.
func ExpandPath(path string) string {
	return expandPath(path)
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
