// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/analyst-tui/internal/config"
)

// runConfig handles "config show|path|init".
func (a *App) runConfig() error {
	switch a.Args.Subcommand {
	case "show":
		if a.Args.JSON {
			return NewJSONResponse("config show", a.Config).Write(a.Stdout)
		}
		body, err := a.Config.Encode()
		if err != nil {
			return NewCommandError("config", "show", err)
		}
		a.printf("# %s\n%s", a.ConfigPath, body)
		return nil

	case "path":
		if a.Args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": a.ConfigPath}).Write(a.Stdout)
		}
		a.println(a.ConfigPath)
		return nil

	case "init":
		return a.configInit()
	}
	return NewUsageError("config "+a.Args.Subcommand, "analyst config show|path|init")
}

// configInit writes the defaults. An existing file is only replaced with
// --confirm.
func (a *App) configInit() error {
	if _, err := os.Stat(a.ConfigPath); err == nil && !a.Args.Confirm {
		return fmt.Errorf("%s already exists; pass --confirm to overwrite it", a.ConfigPath)
	}
	if err := config.Default().Save(a.ConfigPath); err != nil {
		return NewCommandError("config", "init", err)
	}

	if a.Args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": a.ConfigPath}).Write(a.Stdout)
	}
	a.printf("%s Wrote %s\n", SuccessStyle.Render("[OK]"), a.ConfigPath)
	return nil
}
