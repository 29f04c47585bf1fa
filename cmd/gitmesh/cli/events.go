// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"gitmesh.dev/gitmesh/meshcfg"
)

var eventsCmd = &ffcli.Command{
	Name:       "events",
	ShortUsage: "gitmesh events [--rid <rid>] [--count <n>]",
	ShortHelp:  "Stream the node's events as JSON lines",
	LongHelp: strings.TrimSpace(`
Subscribe to the local node's live activity and print one JSON object
per event to stdout. The subscription starts at the moment of the
call; there is no replay of earlier events.

With --rid, only events concerning that repository are printed. With
--count, exit after that many events.
`),
	Exec: runEvents,
	FlagSet: (func() *flag.FlagSet {
		fs := newFlagSet("events")
		fs.StringVar(&eventsArgs.rid, "rid", "", "only stream events for this repository")
		fs.IntVar(&eventsArgs.count, "count", 0, "exit after this many events (0 means stream forever)")
		return fs
	})(),
}

var eventsArgs struct {
	rid   string
	count int
}

func runEvents(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	watcher, err := localClient.WatchEvents(ctx, meshcfg.RepoID(eventsArgs.rid))
	if err != nil {
		return err
	}
	defer watcher.Close()

	for n := 0; eventsArgs.count == 0 || n < eventsArgs.count; n++ {
		ev, err := watcher.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Node shut down; the stream is over.
				return nil
			}
			return err
		}
		line, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		fmt.Fprintf(Stdout, "%s\n", line)
	}
	return nil
}
