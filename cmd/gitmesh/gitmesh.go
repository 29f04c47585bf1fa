// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// The gitmesh command is the gitmesh command-line client. It
// interacts with the gitmeshd node daemon.
package main

import (
	"fmt"
	"os"

	"gitmesh.dev/gitmesh/cmd/gitmesh/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
