// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, "~/.lantern/history.db", cfg.History.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.History.Disabled)
}

func TestDefaultConfigYAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var cfg LanternConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestPartialYAMLKeepsDefaults(t *testing.T) {
	// A user file that only sets the base URL must not wipe the rest.
	partial := []byte("server:\n  base_url: http://answers.internal:9000\n")

	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal(partial, &cfg))

	assert.Equal(t, "http://answers.internal:9000", cfg.Server.BaseURL)
	assert.Equal(t, "~/.lantern/history.db", cfg.History.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LANTERN_BASE_URL", "http://override:1234")
	t.Setenv("LANTERN_USER_ID", "user-env")
	t.Setenv("LANTERN_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "http://override:1234", cfg.Server.BaseURL)
	assert.Equal(t, "user-env", cfg.UserID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvOverridesIgnoresUnset(t *testing.T) {
	t.Setenv("LANTERN_BASE_URL", "")
	t.Setenv("LANTERN_USER_ID", "")
	t.Setenv("LANTERN_LOG_LEVEL", "")

	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)

	assert.Equal(t, DefaultConfig(), cfg)
}
