// Command afrigene-lab is a terminal client for the Afrigene lab API. It
// shares the portal's session semantics: tokens are kept in a local session
// file and every request is sent with the current access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/DarwinOsingo/Afrigene/internal/bootstrap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type commandFn func(cmdCtx *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	flags       func(fs *pflag.FlagSet) any
	run         commandFn
}

// errUsage marks errors caused by bad invocation rather than a failed call.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr})) //nolint:forbidigo // CLI exit status
}

func run(ctx context.Context, args []string, streams stdio) int {
	if len(args) == 0 {
		printUsage(streams.err)
		return exitUsage
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(streams.out)
		return exitOK
	}
	cmd, ok := commands()[name]
	if !ok {
		writef(streams.err, "unknown command %q\n\n", name)
		printUsage(streams.err)
		return exitUsage
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		writef(streams.err, "afrigene-lab: %v\n", err)
		return exitFailure
	}

	cmdCtx := &commandContext{
		Ctx:          ctx,
		IO:           streams,
		readPassword: readTerminalPassword,
	}
	cmdCtx.Opts.defaults(cfg.API)

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(streams.err)
	fs.Usage = func() {
		writef(streams.err, "Usage: afrigene-lab %s %s\n\nFlags:\n", name, cmd.usage)
		fs.PrintDefaults()
	}
	cmdCtx.Opts.addFlags(fs)
	if cmd.flags != nil {
		cmdCtx.Flags = cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	cmdCtx.Logger = newCommandLogger(streams.err, cmdCtx.Opts.Verbose)

	if err := cmd.run(cmdCtx, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			writef(streams.err, "afrigene-lab %s: %v\n", name, err)
			fs.Usage()
			return exitUsage
		}
		writef(streams.err, "afrigene-lab %s: %s\n", name, describeError(err))
		return exitFailure
	}
	return exitOK
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			usage:       "--email <email> [--mfa-code <code>] [--password-stdin]",
			description: "Sign in and store the session locally",
			flags:       loginFlags,
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and clear the stored session",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the signed-in user and API reachability",
			run:         runStatus,
		},
		"samples": {
			name:        "samples",
			usage:       "[--status <status>] [--limit N] [--offset N]",
			description: "List samples for your institution",
			flags:       pageFlags(true),
			run:         runSamples,
		},
		"results": {
			name:        "results",
			usage:       "<sample-id>",
			description: "Show ancestry and health marker results for a sample",
			run:         runResults,
		},
		"audit": {
			name:        "audit",
			usage:       "[--sample <sample-id>] [--limit N] [--offset N]",
			description: "List data access audit entries",
			flags:       pageFlags(false),
			run:         runAudit,
		},
		"institutions": {
			name:        "institutions",
			description: "List partner institutions",
			run:         runInstitutions,
		},
	}
}

func printUsage(w io.Writer) {
	writef(w, "Usage: afrigene-lab <command> [flags]\n\n")
	writef(w, "Available commands:\n")
	cmds := commands()
	names := make([]string, 0, len(cmds)+1)
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		writef(w, "  %-14s %s\n", n, cmds[n].description)
	}
	writef(w, "  %-14s %s\n", "help", "Show this help")
	writef(w, "\nGlobal flags: --api, --session-file, --json, --query, --timeout, --verbose\n")
}

// writef ignores write errors; there is nowhere left to report them.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
