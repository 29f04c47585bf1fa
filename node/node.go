// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package node implements the long-lived core of gitmeshd: the owner
// of the process-wide event emitter that every subsystem publishes
// to, and of the node's own identity.
//
// A Node is constructed once at daemon startup and passed explicitly
// to the subsystems that need it; there is no global instance.
package node

import (
	"time"

	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node/events"
	"gitmesh.dev/gitmesh/types/logger"
)

// Config carries the identity and plumbing a Node needs at startup.
type Config struct {
	// ID is this node's stable identifier.
	ID meshcfg.NodeID
	// Alias is the name announced to peers.
	Alias meshcfg.Alias
	// Logf is the destination for the node's logs. If nil, logs are
	// discarded.
	Logf logger.Logf
}

// Node is the running node core.
type Node struct {
	logf    logger.Logf
	id      meshcfg.NodeID
	alias   meshcfg.Alias
	emitter *events.Emitter[events.Event]
	started time.Time
}

// New returns a started Node. The caller must Close it at shutdown to
// release all event subscriptions.
func New(cfg Config) *Node {
	logf := cfg.Logf
	if logf == nil {
		logf = logger.Discard
	}
	return &Node{
		logf:    logf,
		id:      cfg.ID,
		alias:   cfg.Alias,
		emitter: events.NewEmitter[events.Event](),
		started: time.Now(),
	}
}

// ID returns the node's stable identifier.
func (n *Node) ID() meshcfg.NodeID { return n.id }

// Alias returns the node's announced alias.
func (n *Node) Alias() meshcfg.Alias { return n.alias }

// Emit publishes ev to every subscriber. It never blocks and never
// fails; see [events.Emitter.Emit].
func (n *Node) Emit(ev events.Event) {
	n.logf("[v2] event: %v", ev.Kind())
	n.emitter.Emit(ev)
}

// Subscribe returns a new live subscription to the node's events.
func (n *Node) Subscribe() *events.Events {
	return n.emitter.Subscribe()
}

// AnnounceRefs records that this node announced its refs for rid at
// the given signed-refs head, and returns the emitted event.
func (n *Node) AnnounceRefs(rid meshcfg.RepoID, at git.Oid) events.LocalRefsAnnounced {
	ev := events.LocalRefsAnnounced{
		RID:       rid,
		Refs:      git.RefsAt{Remote: n.id, At: at},
		Timestamp: meshcfg.Now(),
	}
	n.Emit(ev)
	return ev
}

// AnnounceInventory records that a peer announced the repositories it
// hosts, and returns the emitted event.
func (n *Node) AnnounceInventory(nid meshcfg.NodeID, inventory []meshcfg.RepoID) events.InventoryAnnounced {
	ev := events.InventoryAnnounced{
		NID:       nid,
		Inventory: inventory,
		Timestamp: meshcfg.Now(),
	}
	n.Emit(ev)
	return ev
}

// PeerConnected records a new peer session.
func (n *Node) PeerConnected(nid meshcfg.NodeID) {
	n.Emit(events.PeerConnected{NID: nid})
}

// PeerDisconnected records the end of a peer session.
func (n *Node) PeerDisconnected(nid meshcfg.NodeID, reason string) {
	n.Emit(events.PeerDisconnected{NID: nid, Reason: reason})
}

// Status is a snapshot of the node for the control API. Field names
// follow the wire convention of the event stream.
type Status struct {
	ID            meshcfg.NodeID    `json:"id"`
	Alias         meshcfg.Alias     `json:"alias"`
	Started       meshcfg.Timestamp `json:"started"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	Subscriptions int               `json:"subscriptions"`
	PendingEvents int               `json:"pendingEvents"`
}

// Status returns a snapshot of the node. The subscription and
// pending counts reflect pruning performed by past emits, not a live
// probe of subscriber health.
func (n *Node) Status() Status {
	return Status{
		ID:            n.id,
		Alias:         n.alias,
		Started:       meshcfg.At(n.started),
		UptimeSeconds: int64(time.Since(n.started).Seconds()),
		Subscriptions: n.emitter.Subscriptions(),
		PendingEvents: n.emitter.Pending(),
	}
}

// Close shuts the node down, closing every event subscription.
func (n *Node) Close() {
	n.logf("node: shutting down")
	n.emitter.Close()
}
