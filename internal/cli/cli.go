// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing for analyst.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdIngest
	CmdServe
	CmdStatus
	CmdThemes
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdIngest:
		return "ingest"
	case CmdServe:
		return "serve"
	case CmdStatus:
		return "status"
	case CmdThemes:
		return "themes"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	Command Command

	// Global flags
	ConfigPath string
	Verbose    bool
	JSON       bool
	Confirm    bool

	// Command-specific
	Subcommand string
	Query      string
	File       string
	Target     string

	// Options holds command-specific named options (--format, --output).
	Options map[string]string

	// Raw args after the command name
	Raw []string
}

// Option returns a named option or def.
func (a Args) Option(name, def string) string {
	if v, ok := a.Options[name]; ok && v != "" {
		return v
	}
	return def
}

const usageText = `analyst - chat with the AI Analyst about your customer feedback

Usage:
  analyst                          Start the TUI (default)
  analyst chat                     Line-mode chat with history
  analyst ask "question"           Ask one question in the current conversation
  analyst ingest FILE.csv          Upload a feedback CSV for analysis
  analyst serve                    Run the local proxy in front of the engine
  analyst status                   Check proxy and engine health
  analyst themes                   Print the global themes report
  analyst history [subcommand]     Manage saved conversations
  analyst config [subcommand]      Show or create the configuration
  analyst version                  Show version information
  analyst help                     Show this help

History Commands:
  analyst history list             List conversations (* marks the current one)
  analyst history show REF         Print a conversation
  analyst history delete REF       Delete a conversation
  analyst history clear            Delete every conversation
  analyst history export REF       Export a conversation
    --format md|json               Export format (default: md)
    --output FILE                  Write to FILE instead of stdout

  REF is a conversation ID, a unique ID prefix, or the list position.

Config Commands:
  analyst config show              Print the effective configuration
  analyst config path              Print the configuration file path
  analyst config init              Write a default configuration file

Chat Commands (inside "analyst chat"):
  /new  /list  /switch N  /delete  /upload FILE  /help  /quit

Global Flags:
  --config PATH                    Use PATH instead of ~/.analyst/config.toml
  -v, --verbose                    Log diagnostics to stderr
  --json                           Machine-readable output
  -y, --confirm                    Skip confirmation prompts

Environment:
  ANALYST_ENGINE_URL (or AI_ENGINE_URL), ANALYST_PROXY_URL,
  ANALYST_PROXY_LISTEN, ANALYST_PROXY_TOKEN, ANALYST_STORAGE
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// VersionData is the JSON form of "analyst version".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// CurrentVersion returns the build information.
func CurrentVersion() VersionData {
	return VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// PrintVersion writes the version banner.
func PrintVersion(w io.Writer) {
	v := CurrentVersion()
	fmt.Fprintf(w, "analyst %s\n", v.Version)
	fmt.Fprintf(w, "  Commit:   %s\n", v.GitCommit)
	fmt.Fprintf(w, "  Built:    %s\n", v.BuildDate)
	fmt.Fprintf(w, "  Go:       %s\n", v.GoVersion)
	fmt.Fprintf(w, "  Platform: %s\n", v.Platform)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command line arguments (without the program name).
func Parse(argv []string) (Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return args, err
	}
	if args.Command == CmdHelp || args.Command == CmdVersion {
		return args, nil
	}
	if len(remaining) == 0 {
		args.Command = CmdTUI
		return args, nil
	}

	cmd := remaining[0]
	rest := remaining[1:]
	args.Raw = rest
	p := NewArgParser(rest)
	for _, name := range []string{"format", "output", "f", "o"} {
		if v := p.Flag(name); v != "" {
			args.Options[longOption(name)] = v
		}
	}

	switch strings.ToLower(cmd) {
	case "tui":
		args.Command = CmdTUI
	case "chat":
		args.Command = CmdChat
	case "ask", "a":
		args.Command = CmdAsk
		args.Query = JoinPositionalArgs(p, 0)
		if args.Query == "" {
			return args, NewUsageError("ask", `analyst ask "question"`)
		}
	case "ingest", "upload":
		args.Command = CmdIngest
		args.File = p.Positional(0)
		if args.File == "" {
			return args, NewUsageError("ingest", "analyst ingest FILE.csv")
		}
	case "serve", "proxy":
		args.Command = CmdServe
	case "status", "s":
		args.Command = CmdStatus
	case "themes":
		args.Command = CmdThemes
	case "history", "conversations":
		args.Command = CmdHistory
		args.Subcommand = strings.ToLower(p.Subcommand())
		if args.Subcommand == "" {
			args.Subcommand = "list"
		}
		args.Target = p.Positional(1)
	case "config":
		args.Command = CmdConfig
		args.Subcommand = strings.ToLower(p.Subcommand())
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
	case "version":
		args.Command = CmdVersion
	case "help":
		args.Command = CmdHelp
	default:
		return args, NewUsageError(cmd, "analyst help")
	}
	return args, nil
}

func longOption(name string) string {
	switch name {
	case "f":
		return "format"
	case "o":
		return "output"
	}
	return name
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var remaining []string
	args := Args{Options: make(map[string]string)}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "-y" || arg == "--confirm" || arg == "--yes":
			args.Confirm = true
		case arg == "-h" || arg == "--help":
			args.Command = CmdHelp
			return nil, args, nil
		case arg == "--version":
			args.Command = CmdVersion
			return nil, args, nil
		case arg == "--config":
			if i+1 >= len(argv) {
				return nil, args, NewUsageError("--config", "--config PATH")
			}
			i++
			args.ConfigPath = argv[i]
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args, nil
}
