// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package logger defines a type for writing to logs. It's just a
// convenience type so that we don't have to pass verbose func(...)
// types around.
package logger

import (
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Logf is the basic gitmesh logger type: a printf-like func.
// Like log.Printf, the format need not end in a newline.
// Logf functions must be safe for concurrent use.
type Logf func(format string, args ...any)

// WithPrefix wraps f, prefixing each format with the provided prefix.
func WithPrefix(f Logf, prefix string) Logf {
	return func(format string, args ...any) {
		f(prefix+format, args...)
	}
}

// FuncWriter returns an io.Writer that writes to f.
func FuncWriter(f Logf) io.Writer {
	return funcWriter{f}
}

// StdLogger returns a standard library logger from a Logf.
func StdLogger(f Logf) *log.Logger {
	return log.New(FuncWriter(f), "", 0)
}

type funcWriter struct{ f Logf }

func (w funcWriter) Write(p []byte) (int, error) {
	w.f("%s", p)
	return len(p), nil
}

// Discard is a Logf that throws away the logs given to it.
func Discard(string, ...any) {}

// RateLimitedFn returns a rate-limiting Logf wrapping logf. Each
// distinct format string is allowed through at most once every f,
// in bursts of up to burst messages. Suppressed formats log a single
// notice when they first exceed their budget.
func RateLimitedFn(logf Logf, f time.Duration, burst int) Logf {
	var (
		mu      sync.Mutex
		limits  = map[string]*rate.Limiter{}
		blocked = map[string]bool{}
	)
	return func(format string, args ...any) {
		mu.Lock()
		lim, ok := limits[format]
		if !ok {
			lim = rate.NewLimiter(rate.Every(f), burst)
			limits[format] = lim
		}
		allow := lim.Allow()
		warn := false
		if allow {
			delete(blocked, format)
		} else if !blocked[format] {
			blocked[format] = true
			warn = true
		}
		mu.Unlock()

		if allow {
			logf(format, args...)
		} else if warn {
			logf("[RATELIMIT] format(%q)", format)
		}
	}
}
