// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tstest provides utilities for gitmesh unit tests.
package tstest

import (
	"bytes"
	"fmt"
	"sync"
)

// MemLogger is a bytes.Buffer with a Logf method. It is safe for
// concurrent use, so it can outlive the test that created it without
// the "log after test" hazard of testing.T.Logf.
type MemLogger struct {
	sync.Mutex
	bytes.Buffer
}

// Logf appends the formatted message to the buffer, ensuring a
// trailing newline.
func (ml *MemLogger) Logf(format string, args ...any) {
	ml.Lock()
	defer ml.Unlock()
	fmt.Fprintf(&ml.Buffer, format, args...)
	if b := ml.Buffer.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		ml.Buffer.WriteByte('\n')
	}
}

// String returns the buffered log contents.
func (ml *MemLogger) String() string {
	ml.Lock()
	defer ml.Unlock()
	return ml.Buffer.String()
}
