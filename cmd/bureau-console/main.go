// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-console is a terminal client for an agent service. It keeps a
// local, event-driven cache of the service's sessions, messages and
// metadata, and offers a few ways to look at it:
//
//	sessions   list sessions, optionally fuzzy-filtered
//	watch      follow the live event stream and log every change
//	view       interactive session and message browser
//	inspect    summarize a snapshot written by watch
//
// Configuration comes from --config or BUREAU_CONSOLE_CONFIG; the
// global flags override individual settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/console/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			if !isSilent(err) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the flags accepted before the subcommand.
type globalOptions struct {
	configPath string
	server     string
	directory  string
	logLevel   string
}

// invocation is one run of the binary: parsed global flags and the
// streams commands write to.
type invocation struct {
	globals globalOptions
	stdout  io.Writer
	stderr  io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, inv *invocation, args []string) error
}

func commands() []command {
	return []command{
		{name: "sessions", summary: "list sessions with token totals", run: runSessions},
		{name: "watch", summary: "follow the event stream and log store changes", run: runWatch},
		{name: "view", summary: "browse sessions and messages interactively", run: runView},
		{name: "inspect", summary: "summarize a snapshot file", run: runInspect},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	inv := &invocation{stdout: stdout, stderr: stderr}

	flagSet := pflag.NewFlagSet("bureau-console", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&inv.globals.configPath, "config", "", "config file (default: $BUREAU_CONSOLE_CONFIG)")
	flagSet.StringVar(&inv.globals.server, "server", "", "agent service URL, overriding server.url")
	flagSet.StringVar(&inv.globals.directory, "directory", "", "project directory sent to the service, overriding server.directory")
	flagSet.StringVar(&inv.globals.logLevel, "log-level", "", "debug, info, warn or error, overriding log.level")
	showVersion := flagSet.Bool("version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return Validation("%v", err).WithHint("Run 'bureau-console --help' for usage.")
	}
	if *showVersion {
		fmt.Fprintf(stdout, "bureau-console %s\n", version.Full())
		return nil
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet)
		return nil
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		printHelp(stderr, flagSet)
		return &ExitError{Code: exitValidation}
	}
	for _, candidate := range commands() {
		if candidate.name == remaining[0] {
			return candidate.run(ctx, inv, remaining[1:])
		}
	}
	return Validation("unknown command %q", remaining[0]).
		WithHint("Run 'bureau-console --help' to list commands.")
}

func printHelp(output io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(output, `bureau-console: terminal client for an agent service.

Usage:
  bureau-console [global flags] <command> [flags]

Commands:
`)
	for _, command := range commands() {
		fmt.Fprintf(output, "  %-10s %s\n", command.name, command.summary)
	}
	fmt.Fprintf(output, "\nGlobal flags:\n")
	flagSet.SetOutput(output)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}

// parseCommandFlags parses a subcommand's flags, turning --help into
// printed usage and a nil error with handled set.
func parseCommandFlags(inv *invocation, flagSet *pflag.FlagSet, usage string, args []string) (handled bool, err error) {
	flagSet.SetOutput(io.Discard)
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(inv.stdout, flagSet, usage)
			return true, nil
		}
		return false, Validation("%s: %v", flagSet.Name(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printCommandHelp(inv.stdout, flagSet, usage)
		return true, nil
	}
	return false, nil
}

func printCommandHelp(output io.Writer, flagSet *pflag.FlagSet, usage string) {
	fmt.Fprintf(output, "Usage:\n  %s\n\nFlags:\n", usage)
	flagSet.SetOutput(output)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
