// analyst - a terminal client for the AI Analyst customer-feedback engine.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/analyst-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		return fail(args, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(args)
	if err != nil {
		return fail(args, err)
	}

	if err := app.Run(ctx); err != nil {
		return fail(args, err)
	}
	return cli.ExitSuccess
}

// fail reports err, as JSON on stdout in --json mode, and returns the exit
// code.
func fail(args cli.Args, err error) int {
	w := os.Stderr
	if args.JSON {
		w = os.Stdout
	}
	cli.DisplayError(w, args.Command.String(), err, args.JSON)
	return cli.ExitCode(err)
}
