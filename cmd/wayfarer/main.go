// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Command wayfarer is the management binary of the place recommender.
//
// Usage:
//
//	wayfarer [--config=FILE] [-v] <command> [flags]
//
// Commands:
//
//	build [kind]        rebuild artifacts (cooc, clusters, content, item_sim, popularity, all)
//	evaluate            offline holdout evaluation (--k, --holdout, --seed)
//	recommend           rank places (--user, --tags, --q, --provinces, --k, --filter, --include-seen)
//	record              apply an interaction event (--user, --place, --event)
//	rating              print a stored rating (--user, --place)
//	serve               run the admin server and scheduled rebuilds
//
// Configuration is read from --config, WAYFARER_CONFIG, ./wayfarer.yaml or
// /etc/wayfarer/wayfarer.yaml, and WAYFARER_* environment variables.
//
// # Exit codes
//
//	0  success
//	1  internal failure
//	2  invalid argument
//	3  not found
//	4  artifact missing
//	5  unavailable
//
// On failure exactly one line, "wayfarer: <message>", is written to
// stderr. Logs go to stderr only with -v, except under serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tomtom215/wayfarer/internal/apperr"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// env is what every command receives besides its own arguments.
type env struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	verbose    bool
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

func commands() []command {
	return []command{
		{"build", "rebuild and store artifacts", runBuild},
		{"evaluate", "offline holdout evaluation", runEvaluate},
		{"recommend", "rank places for a user or query", runRecommend},
		{"record", "apply an interaction event to a rating", runRecord},
		{"rating", "print the stored rating of a user and place", runRating},
		{"serve", "run the admin server and scheduled rebuilds", runServe},
	}
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	e := &env{stdout: stdout, stderr: stderr}

	fs := flag.NewFlagSet("wayfarer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&e.configPath, "config", "", "configuration file")
	fs.BoolVar(&e.verbose, "v", false, "write logs to stderr")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(stdout, fs)
			return 0
		}
		return fail(stderr, apperr.InvalidArgument("", "%v", err))
	}

	if fs.NArg() == 0 {
		return fail(stderr, apperr.InvalidArgument("", "missing command (try --help)"))
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	if name == "help" {
		usage(stdout, fs)
		return 0
	}

	for _, c := range commands() {
		if c.name == name {
			if err := c.run(ctx, e, rest); err != nil {
				return fail(stderr, err)
			}
			return 0
		}
	}
	return fail(stderr, apperr.InvalidArgument("", "unknown command %q", name))
}

// fail prints err as a single line and returns its exit code.
func fail(stderr io.Writer, err error) int {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	_, _ = fmt.Fprintf(stderr, "wayfarer: %s\n", msg) //nolint:errcheck // nothing left to report to
	return apperr.ExitCode(err)
}

func usage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintln(w, "usage: wayfarer [flags] <command> [command flags]")
	_, _ = fmt.Fprintln(w, "\ncommands:")
	for _, c := range commands() {
		_, _ = fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	_, _ = fmt.Fprintln(w, "\nflags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// parseFlags parses a command's flags. helped is true when -h was given
// and usage has been printed.
func parseFlags(e *env, fs *flag.FlagSet, args []string) (helped bool, err error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(e.stdout, "usage: wayfarer %s [flags]\n", fs.Name())
			fs.SetOutput(e.stdout)
			fs.PrintDefaults()
			return true, nil
		}
		return false, apperr.InvalidArgument(fs.Name(), "%v", err)
	}
	return false, nil
}

// parseArgs is parseFlags for commands with positional arguments: flags may
// appear before, between or after them. Positionals are returned in order.
func parseArgs(e *env, fs *flag.FlagSet, args []string) (positional []string, helped bool, err error) {
	for {
		if helped, err = parseFlags(e, fs, args); helped || err != nil {
			return nil, helped, err
		}
		if fs.NArg() == 0 {
			return positional, false, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
