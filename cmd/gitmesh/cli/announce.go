// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"
	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
)

var announceCmd = &ffcli.Command{
	Name:       "announce",
	ShortUsage: "gitmesh announce --rid <rid> [--at <oid>]",
	ShortHelp:  "Announce this node's refs for a repository",
	Exec:       runAnnounce,
	FlagSet: (func() *flag.FlagSet {
		fs := newFlagSet("announce")
		fs.StringVar(&announceArgs.rid, "rid", "", "repository to announce")
		fs.StringVar(&announceArgs.at, "at", "", "signed-refs head to announce")
		return fs
	})(),
}

var announceArgs struct {
	rid string
	at  string
}

func runAnnounce(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if announceArgs.rid == "" {
		return errors.New("--rid is required")
	}
	var at git.Oid
	if announceArgs.at != "" {
		var err error
		if at, err = git.ParseOid(announceArgs.at); err != nil {
			return err
		}
	}
	ev, err := localClient.AnnounceRefs(ctx, meshcfg.RepoID(announceArgs.rid), at)
	if err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	fmt.Fprintf(Stdout, "%s\n", line)
	return nil
}
