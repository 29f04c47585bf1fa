// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node/events"
)

var waitCmd = &ffcli.Command{
	Name:       "wait",
	ShortUsage: "gitmesh wait --rid <rid> [--oid <oid>] [--timeout <duration>]",
	ShortHelp:  "Wait until a peer has synced this node's refs",
	LongHelp: strings.TrimSpace(`
Block until some peer acknowledges this node's refs for the given
repository, then exit 0. With --oid, wait for the refs to be synced
at that specific commit.

The command fails after --timeout (default 1m) if no peer syncs in
time, and fails immediately if the node shuts down, since no sync can
ever arrive then. A script can tell the two apart by the error text
and simply re-run the command in the timeout case.
`),
	Exec: runWait,
	FlagSet: (func() *flag.FlagSet {
		fs := newFlagSet("wait")
		fs.StringVar(&waitArgs.rid, "rid", "", "repository to wait for")
		fs.StringVar(&waitArgs.oid, "oid", "", "wait for the refs to be synced at this commit")
		fs.DurationVar(&waitArgs.timeout, "timeout", time.Minute, "how long to wait before giving up")
		return fs
	})(),
}

var waitArgs struct {
	rid     string
	oid     string
	timeout time.Duration
}

func runWait(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if waitArgs.rid == "" {
		return errors.New("--rid is required")
	}
	var oid git.Oid
	if waitArgs.oid != "" {
		var err error
		if oid, err = git.ParseOid(waitArgs.oid); err != nil {
			return err
		}
	}

	synced, err := localClient.WaitRefsSynced(ctx, meshcfg.RepoID(waitArgs.rid), oid, waitArgs.timeout)
	switch {
	case errors.Is(err, events.ErrTimeout):
		return fmt.Errorf("no peer synced %s within %v", waitArgs.rid, waitArgs.timeout)
	case errors.Is(err, events.ErrDisconnected):
		return errors.New("node shut down before any peer synced")
	case err != nil:
		return err
	}
	fmt.Fprintf(Stdout, "synced by %s at %s\n", synced.Remote, synced.At)
	return nil
}
