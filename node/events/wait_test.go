// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"
)

func TestWait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEmitter[int]()
		defer e.Close()
		s := e.Subscribe()

		go func() {
			e.Emit(1)
			e.Emit(2)
			time.Sleep(10 * time.Millisecond)
			e.Emit(42)
		}()

		// Non-matching events are discarded without consuming the
		// timeout budget.
		got, err := Wait(s, func(v int) (string, bool) {
			if v == 42 {
				return "match", true
			}
			return "", false
		}, time.Second)
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if got != "match" {
			t.Errorf("Wait = %q, want %q", got, "match")
		}
	})
}

func TestWaitTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEmitter[int]()
		defer e.Close()
		s := e.Subscribe()

		go func() {
			// Produce events, none of which match.
			for i := range 5 {
				e.Emit(i)
				time.Sleep(10 * time.Millisecond)
			}
		}()

		start := time.Now()
		_, err := Wait(s, func(int) (struct{}, bool) { return struct{}{}, false }, 100*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("Wait error = %v, want ErrTimeout", err)
		}
		// The producer stays alive past the deadline, so this must be
		// a timeout, not a disconnect, and the total block time must
		// not exceed the budget.
		if elapsed := time.Since(start); elapsed != 100*time.Millisecond {
			t.Errorf("Wait blocked for %v, want exactly the 100ms budget", elapsed)
		}
	})
}

func TestWaitDisconnected(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEmitter[int]()
		s := e.Subscribe()

		go func() {
			time.Sleep(10 * time.Millisecond)
			e.Close()
		}()

		start := time.Now()
		_, err := Wait(s, func(int) (struct{}, bool) { return struct{}{}, false }, time.Minute)
		if !errors.Is(err, ErrDisconnected) {
			t.Fatalf("Wait error = %v, want ErrDisconnected", err)
		}
		if elapsed := time.Since(start); elapsed >= time.Minute {
			t.Errorf("Wait blocked for %v, want to fail well before the timeout", elapsed)
		}
	})
}

func TestWaitDisconnectedAfterPrune(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEmitter[int](1)
		defer e.Close()
		s := e.Subscribe()
		e.Emit(1)
		e.Emit(2) // overflows; subscriber is dropped

		// The buffered non-matching event is consumed, then the
		// closed channel surfaces as a disconnect.
		_, err := Wait(s, func(int) (struct{}, bool) { return struct{}{}, false }, time.Second)
		if !errors.Is(err, ErrDisconnected) {
			t.Fatalf("Wait error = %v, want ErrDisconnected", err)
		}
	})
}

func TestWaitReturnsFirstMatch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := NewEmitter[int]()
		defer e.Close()
		s := e.Subscribe()
		for i := range 10 {
			e.Emit(i)
		}
		got, err := Wait(s, func(v int) (int, bool) { return v, v >= 3 }, time.Second)
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if got != 3 {
			t.Errorf("Wait = %v, want 3 (first satisfying event)", got)
		}
		// Later events are still available to subsequent receives.
		if next := <-s.Chan(); next != 4 {
			t.Errorf("next event = %v, want 4", next)
		}
	})
}
