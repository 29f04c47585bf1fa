// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package meshcfg contains the identifier and wire schema types shared
// between the gitmesh node, its control API, and its peers.
package meshcfg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NodeID (NID) is the stable identifier of a peer: the multibase
// encoding of its public key. It never changes for the lifetime of
// the peer's key pair.
type NodeID string

// IsZero reports whether id is the zero value.
func (id NodeID) IsZero() bool { return id == "" }

func (id NodeID) String() string { return string(id) }

// RepoID (RID) is the stable identifier of a tracked repository, a
// URN of the form "gitm:<multibase>".
type RepoID string

// IsZero reports whether rid is the zero value.
func (rid RepoID) IsZero() bool { return rid == "" }

func (rid RepoID) String() string { return string(rid) }

// MaxAliasLength is the maximum length of a node alias, in bytes.
const MaxAliasLength = 32

// Alias is a human-readable name a node announces for itself. It is
// advisory only and carries no authentication.
type Alias string

// ParseAlias validates s and returns it as an [Alias]. Aliases are
// limited to MaxAliasLength bytes of printable ASCII with no
// whitespace.
func ParseAlias(s string) (Alias, error) {
	if s == "" {
		return "", fmt.Errorf("alias must not be empty")
	}
	if len(s) > MaxAliasLength {
		return "", fmt.Errorf("alias %q exceeds %v bytes", s, MaxAliasLength)
	}
	for _, r := range s {
		if r <= ' ' || r > '~' {
			return "", fmt.Errorf("alias %q contains invalid character %q", s, r)
		}
	}
	return Alias(s), nil
}

func (a Alias) String() string { return string(a) }

// Timestamp is a moment in time, expressed as milliseconds since the
// Unix epoch. It is an integer on the wire.
type Timestamp uint64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// At converts t to a Timestamp, truncating to millisecond precision.
func At(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns ts as a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts)).UTC()
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339Nano)
}

// Features is a bitset of protocol features a node advertises in its
// announcements. It is an integer on the wire.
type Features uint64

const (
	// FeatureSeed indicates the node stores and serves repositories
	// to other peers.
	FeatureSeed Features = 1 << 0
	// FeatureRelay indicates the node relays announcements for peers
	// it is connected to.
	FeatureRelay Features = 1 << 1
)

// Has reports whether all bits of f2 are set in f.
func (f Features) Has(f2 Features) bool { return f&f2 == f2 }

func (f Features) String() string {
	var names []string
	if f.Has(FeatureSeed) {
		names = append(names, "seed")
	}
	if f.Has(FeatureRelay) {
		names = append(names, "relay")
	}
	if rest := f &^ (FeatureSeed | FeatureRelay); rest != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Address is a peer dial address in "host:port" form. The host may be
// a DNS name, an IP literal, or an onion address.
type Address string

func (a Address) String() string { return string(a) }
