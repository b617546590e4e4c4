// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// LanternConfig is the persisted CLI configuration, read from
// ~/.lantern/lantern.yaml on startup.
type LanternConfig struct {
	// Server holds the answer service connection settings.
	Server ServerConfig `yaml:"server"`

	// History configures local conversation persistence.
	History HistoryConfig `yaml:"history"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// UserID scopes persisted messages. Optional.
	UserID string `yaml:"user_id,omitempty"`
}

type ServerConfig struct {
	// BaseURL of the streaming answer service, e.g. "http://localhost:8000".
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds caps a single streamed response end to end.
	// Streaming answers routinely take minutes; zero uses the built-in
	// default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

type HistoryConfig struct {
	// Path of the SQLite database file. Supports ~ expansion.
	Path string `yaml:"path"`

	// Disabled turns off persistence entirely; turns are display-only.
	Disabled bool `yaml:"disabled,omitempty"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Dir enables file logging when set. Supports ~ expansion.
	Dir string `yaml:"dir,omitempty"`

	// JSON switches stderr logs to JSON format.
	JSON bool `yaml:"json,omitempty"`
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() LanternConfig {
	return LanternConfig{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
		},
		History: HistoryConfig{
			Path: "~/.lantern/history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
