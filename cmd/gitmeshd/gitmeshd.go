// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// The gitmeshd program is the gitmesh node daemon. It's configured
// and controlled via the gitmesh CLI program over a local unix
// socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gitmesh.dev/gitmesh/control"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node"
	"gitmesh.dev/gitmesh/paths"
	"gitmesh.dev/gitmesh/types/logger"
)

var args struct {
	socketPath string
	nodeID     string
	alias      string
	verbose    bool
}

func main() {
	flag.StringVar(&args.socketPath, "socket", paths.DefaultSocket(), "path of the service unix socket")
	flag.StringVar(&args.nodeID, "node-id", "", "this node's identifier")
	flag.StringVar(&args.alias, "alias", "", "alias to announce for this node")
	flag.BoolVar(&args.verbose, "verbose", false, "log verbosely")
	flag.Parse()
	if flag.NArg() > 0 {
		log.Fatalf("too many non-flag arguments: %q", flag.Args())
	}

	log.SetFlags(0)
	logf := logger.Logf(log.Printf)
	if !args.verbose {
		logf = logger.RateLimitedFn(logf, 5*time.Second, 5)
	}

	if err := run(logf); err != nil {
		log.Fatal(err)
	}
}

func run(logf logger.Logf) error {
	if args.nodeID == "" {
		return fmt.Errorf("--node-id is required")
	}
	var alias meshcfg.Alias
	if args.alias != "" {
		var err error
		alias, err = meshcfg.ParseAlias(args.alias)
		if err != nil {
			return fmt.Errorf("--alias: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(args.socketPath), 0o755); err != nil {
		return err
	}
	// A previous unclean shutdown may have left the socket behind.
	os.Remove(args.socketPath)
	ln, err := net.Listen("unix", args.socketPath)
	if err != nil {
		return err
	}
	defer os.Remove(args.socketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := node.New(node.Config{
		ID:    meshcfg.NodeID(args.nodeID),
		Alias: alias,
		Logf:  logf,
	})
	defer n.Close()

	logf("gitmeshd: node %v (%v) up, control socket %v", n.ID(), n.Alias(), args.socketPath)
	return control.New(n, logf).Run(ctx, ln)
}
