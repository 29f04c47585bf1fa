// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
)

var statusCmd = &ffcli.Command{
	Name:       "status",
	ShortUsage: "gitmesh status [--json]",
	ShortHelp:  "Show the local node's status",
	Exec:       runStatus,
	FlagSet: (func() *flag.FlagSet {
		fs := newFlagSet("status")
		fs.BoolVar(&statusArgs.json, "json", false, "output in JSON format")
		return fs
	})(),
}

var statusArgs struct {
	json bool
}

func runStatus(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	st, err := localClient.Status(ctx)
	if err != nil {
		return err
	}
	if statusArgs.json {
		enc := json.NewEncoder(Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(Stdout, "%s (%s)\n", st.ID, st.Alias)
	fmt.Fprintf(Stdout, "  up since:      %s (%s)\n", st.Started, time.Duration(st.UptimeSeconds)*time.Second)
	fmt.Fprintf(Stdout, "  subscriptions: %d\n", st.Subscriptions)
	fmt.Fprintf(Stdout, "  pending:       %d\n", st.PendingEvents)
	return nil
}
