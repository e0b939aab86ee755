// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the analyst commands.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global flags and command arguments
//   - App: Runs one command with its configuration, output streams and
//     injectable backend, storage and prompt
//   - ChatREPL: The line-mode chat used by "analyst chat"
//
// # Usage
//
//	args, err := cli.Parse(os.Args[1:])
//	app, err := cli.NewApp(args)
//	if err := app.Run(ctx); err != nil {
//	    cli.DisplayError(os.Stderr, args.Command.String(), err, args.JSON)
//	    os.Exit(cli.ExitCode(err))
//	}
//
// All commands accept --json; destructive ones require --confirm when they
// cannot prompt.
package cli
