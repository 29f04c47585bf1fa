// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package git contains the small git value types that cross the node's
// event and control API boundaries: object ids, reference names, and
// the reference update records produced by fetches.
package git

import (
	"fmt"
	"regexp"

	"gitmesh.dev/gitmesh/meshcfg"
)

// Oid is a hex-encoded git object id.
type Oid string

// ZeroOid is the all-zero object id, used where git itself uses it:
// the old side of a created ref, the new side of a deleted one.
const ZeroOid Oid = "0000000000000000000000000000000000000000"

var oidRx = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// ParseOid validates s as a hex object id (SHA-1 or SHA-256 length).
func ParseOid(s string) (Oid, error) {
	if !oidRx.MatchString(s) {
		return "", fmt.Errorf("invalid object id %q", s)
	}
	return Oid(s), nil
}

// IsZero reports whether o is empty or the all-zero id.
func (o Oid) IsZero() bool { return o == "" || o == ZeroOid }

func (o Oid) String() string { return string(o) }

// RefName is a fully qualified git reference name,
// e.g. "refs/heads/master".
type RefName string

func (n RefName) String() string { return string(n) }

// RefUpdateType discriminates the outcome of a single reference
// during a fetch.
type RefUpdateType string

const (
	RefUpdated RefUpdateType = "updated"
	RefCreated RefUpdateType = "created"
	RefDeleted RefUpdateType = "deleted"
	RefSkipped RefUpdateType = "skipped"
)

// RefUpdate describes what happened to one reference during a fetch.
// Old and New are set for updates; Oid carries the single relevant id
// for creations, deletions, and skips.
type RefUpdate struct {
	Type RefUpdateType `json:"type"`
	Name RefName       `json:"name"`
	Old  Oid           `json:"old,omitempty"`
	New  Oid           `json:"new,omitempty"`
	Oid  Oid           `json:"oid,omitempty"`
}

// Updated returns a RefUpdate recording name moving from old to new.
func Updated(name RefName, old, new Oid) RefUpdate {
	return RefUpdate{Type: RefUpdated, Name: name, Old: old, New: new}
}

// Created returns a RefUpdate recording name being created at oid.
func Created(name RefName, oid Oid) RefUpdate {
	return RefUpdate{Type: RefCreated, Name: name, Oid: oid}
}

// Deleted returns a RefUpdate recording name being deleted; oid is
// its last value.
func Deleted(name RefName, oid Oid) RefUpdate {
	return RefUpdate{Type: RefDeleted, Name: name, Oid: oid}
}

// Skipped returns a RefUpdate recording name left untouched at oid.
func Skipped(name RefName, oid Oid) RefUpdate {
	return RefUpdate{Type: RefSkipped, Name: name, Oid: oid}
}

func (u RefUpdate) String() string {
	switch u.Type {
	case RefUpdated:
		return fmt.Sprintf("%s %s..%s", u.Name, u.Old, u.New)
	case RefCreated:
		return fmt.Sprintf("%s created %s", u.Name, u.Oid)
	case RefDeleted:
		return fmt.Sprintf("%s deleted %s", u.Name, u.Oid)
	default:
		return fmt.Sprintf("%s skipped %s", u.Name, u.Oid)
	}
}

// RefsAt points at one remote's signed refs: the head commit of the
// signature branch the remote publishes for a repository.
type RefsAt struct {
	Remote meshcfg.NodeID `json:"remote"`
	At     Oid            `json:"at"`
}
