// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the Lantern CLI configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML file at
// ~/.lantern/lantern.yaml (created on first run), a .env file in the
// working directory, then process environment variables
// (LANTERN_BASE_URL, LANTERN_USER_ID, LANTERN_LOG_LEVEL).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global LanternConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not find the user's home directory: %w", err)
	}
	configPath := filepath.Join(home, ".lantern", "lantern.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "First run detected, creating the config at %s\n", configPath)
		if err := createDefault(configPath); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}
	Global = DefaultConfig()
	if err = yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	// A .env in the working directory overlays the file; absence is
	// not an error.
	_ = godotenv.Load()
	applyEnvOverrides(&Global)

	return nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets the environment win over the file, which is
// what scripted and CI usage expects.
func applyEnvOverrides(cfg *LanternConfig) {
	if v := os.Getenv("LANTERN_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("LANTERN_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("LANTERN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
