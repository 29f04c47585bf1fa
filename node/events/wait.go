// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Wait when no event satisfying the
	// predicate arrived within the requested duration.
	ErrTimeout = errors.New("events: wait timed out")

	// ErrDisconnected is returned by Wait when the subscription has
	// reached end-of-stream: the emitter shut down, or this
	// subscriber was pruned for falling behind. No further events can
	// ever arrive, so retrying is futile; callers should distinguish
	// this from ErrTimeout.
	ErrDisconnected = errors.New("events: subscription disconnected")
)

// Wait receives from sub until pred returns a value for some event,
// then returns that value. Events rejected by pred are discarded.
//
// Wait blocks for at most timeout in total: the budget covers the
// whole call, not each receive. On expiry it returns ErrTimeout; if
// the subscription reaches end-of-stream first it returns
// ErrDisconnected. There is no other cancellation mechanism; a caller
// wanting to retry invokes Wait again with a fresh timeout.
func Wait[T, V any](sub *Subscription[T], pred func(T) (V, bool), timeout time.Duration) (V, error) {
	var zero V
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-sub.ch:
			if !ok {
				return zero, ErrDisconnected
			}
			if v, ok := pred(ev); ok {
				return v, nil
			}
		case <-timer.C:
			return zero, ErrTimeout
		}
	}
}
