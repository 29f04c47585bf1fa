// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package paths returns platform and user-specific default paths used
// by gitmesh.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultSocket returns the path to the gitmeshd control socket: the
// system location when running as root, otherwise a per-user runtime
// path.
func DefaultSocket() string {
	if runtime.GOOS == "linux" && os.Getuid() == 0 {
		return "/var/run/gitmesh/gitmeshd.sock"
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "gitmesh", "gitmeshd.sock")
	}
	return filepath.Join(homeStateDir(), "gitmeshd.sock")
}

func homeStateDir() string {
	if e := os.Getenv("XDG_DATA_HOME"); e != "" {
		return filepath.Join(e, "gitmesh")
	}
	return filepath.Join(os.Getenv("HOME"), ".local/share/gitmesh")
}
