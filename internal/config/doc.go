// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates analyst settings.
//
// Settings come from, in increasing precedence:
//   - built-in defaults (Default)
//   - ~/.analyst/config.toml, or the file given with --config
//   - environment variables (ApplyEnvOverrides)
//
// # Key Types
//
//   - Config: all sections (engine, proxy, client, upload, storage, history, ui)
//   - ValidateErrors: every problem found by Validate
//   - Watcher: reloads a config file when it changes on disk
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(cfg.Client.ProxyURL)
package config
