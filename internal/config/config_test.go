// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Engine.URL)
	assert.Equal(t, 2, cfg.Client.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBase())
	assert.Equal(t, 3*time.Second, cfg.RetryMax())

	parse, analysis, hold, clear := cfg.UploadDelays()
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 300 * time.Millisecond, time.Second},
		[]time.Duration{parse, analysis, hold, clear})
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Proxy.Listen, cfg.Proxy.Listen)
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
[engine]
url = "https://engine.example.com"

[storage]
backend = "sqlite"

[ui]
markdown = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://engine.example.com", cfg.Engine.URL)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.False(t, cfg.UI.Markdown)
	assert.Equal(t, 28, cfg.UI.SidebarWidth)
	assert.Equal(t, 500, cfg.Upload.AnalysisDelayMs)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[engine]\nurll = \"http://x\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.urll")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
[engine]
url = "ftp://nope"
[storage]
backend = "redis"
[client]
max_retries = -1
`)

	_, err := Load(path)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs), "err = %v", err)
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	assert.True(t, fields["engine.url"])
	assert.True(t, fields["storage.backend"])
	assert.True(t, fields["client.max_retries"])
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AI_ENGINE_URL", "http://legacy:8000")
	t.Setenv("ANALYST_PROXY_TOKEN", "s3cret")
	t.Setenv("ANALYST_STORAGE", "SQLite")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://legacy:8000", cfg.Engine.URL)
	assert.Equal(t, "s3cret", cfg.Proxy.Token)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)

	t.Setenv("ANALYST_ENGINE_URL", "http://preferred:8000")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://preferred:8000", cfg.Engine.URL)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Proxy.Listen = "0.0.0.0:3100"
	cfg.History.PersistEmpty = true
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Default().Save(path))

	var mu sync.Mutex
	var got *Config
	w, err := Watch(path, 20*time.Millisecond, func(c *Config) {
		mu.Lock()
		got = c
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Engine.URL = "http://reloaded:9000"
	require.NoError(t, cfg.Save(path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Engine.URL == "http://reloaded:9000"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatch_InvalidEditIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Default().Save(path))

	calls := make(chan *Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(c *Config) { calls <- c })
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, path, "[storage]\nbackend = \"redis\"\n")
	select {
	case c := <-calls:
		t.Fatalf("onChange called with %+v for an invalid file", c)
	case <-time.After(300 * time.Millisecond):
	}
	require.NoError(t, w.Close())
}
