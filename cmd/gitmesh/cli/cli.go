// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cli contains the cmd/gitmesh CLI code: the commands a user
// runs against a local gitmeshd.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"gitmesh.dev/gitmesh/client/local"
	"gitmesh.dev/gitmesh/paths"
)

// Stdout and Stderr are the standard output streams, replaceable for
// tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// localClient is the gitmeshd client shared by all subcommands. Its
// socket path is set by the root --socket flag before any subcommand
// runs.
var localClient local.Client

var rootArgs struct {
	socket string
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.SetOutput(Stderr)
	return fs
}

// Run runs the CLI with the given arguments (excluding the program
// name) and returns its error, if any.
func Run(args []string) error {
	rootfs := newFlagSet("gitmesh")
	rootfs.StringVar(&rootArgs.socket, "socket", paths.DefaultSocket(), "path to gitmeshd socket")

	rootCmd := &ffcli.Command{
		Name:       "gitmesh",
		ShortUsage: "gitmesh [flags] <subcommand> [command flags]",
		ShortHelp:  "Interact with the local gitmesh node.",
		LongHelp: strings.TrimSpace(`
For help on subcommands, add --help after: "gitmesh status --help".
`),
		Subcommands: []*ffcli.Command{
			statusCmd,
			eventsCmd,
			waitCmd,
			announceCmd,
		},
		FlagSet: rootfs,
		Exec:    func(context.Context, []string) error { return flag.ErrHelp },
	}

	if err := rootCmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	localClient.Socket = rootArgs.socket

	err := rootCmd.Run(context.Background())
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// Fatalf writes the formatted message to Stderr and exits.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(Stderr, "gitmesh: "+format+"\n", args...)
	os.Exit(1)
}
