// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package events defines the node's observable activity — the typed
// events subsystems publish as work completes — and the broadcast
// machinery that fans them out to subscribers.
//
// Events cross the process boundary in a tagged JSON form: an object
// with a lowerCamelCase "type" discriminant alongside the variant's
// fields, e.g.
//
//	{"type":"peerConnected","nid":"z6Mkt…"}
//
// External consumers dispatch on the discriminant, so the encoding of
// every variant is part of the node's public contract.
package events

import (
	"encoding/json"
	"fmt"

	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node/events/uploadpack"
	"gitmesh.dev/gitmesh/util/jsontag"
)

// Kind is the wire discriminant of an event.
type Kind string

const (
	KindRefsFetched        Kind = "refsFetched"
	KindRefsSynced         Kind = "refsSynced"
	KindSeedDiscovered     Kind = "seedDiscovered"
	KindSeedDropped        Kind = "seedDropped"
	KindPeerConnected      Kind = "peerConnected"
	KindPeerDisconnected   Kind = "peerDisconnected"
	KindLocalRefsAnnounced Kind = "localRefsAnnounced"
	KindInventoryAnnounced Kind = "inventoryAnnounced"
	KindRefsAnnounced      Kind = "refsAnnounced"
	KindNodeAnnounced      Kind = "nodeAnnounced"
	KindUploadPack         Kind = "uploadPack"
)

// Event is one observable node activity. The set of implementations
// is closed; values are immutable once constructed and are delivered
// by copy to every subscriber.
type Event interface {
	Kind() Kind
	event()
}

// RefsFetched reports that this node fetched refs of a repository
// from a remote peer.
type RefsFetched struct {
	Remote  meshcfg.NodeID  `json:"remote"`
	RID     meshcfg.RepoID  `json:"rid"`
	Updated []git.RefUpdate `json:"updated"`
}

func (RefsFetched) Kind() Kind { return KindRefsFetched }
func (RefsFetched) event()     {}

func (e RefsFetched) MarshalJSON() ([]byte, error) {
	type alias RefsFetched
	return jsontag.Marshal(string(KindRefsFetched), alias(e))
}

// RefsSynced reports that a remote peer acknowledged our refs for a
// repository at the given signed-refs head.
type RefsSynced struct {
	Remote meshcfg.NodeID `json:"remote"`
	RID    meshcfg.RepoID `json:"rid"`
	At     git.Oid        `json:"at"`
}

func (RefsSynced) Kind() Kind { return KindRefsSynced }
func (RefsSynced) event()     {}

func (e RefsSynced) MarshalJSON() ([]byte, error) {
	type alias RefsSynced
	return jsontag.Marshal(string(KindRefsSynced), alias(e))
}

// SeedDiscovered reports that a peer was found to seed a repository.
type SeedDiscovered struct {
	RID meshcfg.RepoID `json:"rid"`
	NID meshcfg.NodeID `json:"nid"`
}

func (SeedDiscovered) Kind() Kind { return KindSeedDiscovered }
func (SeedDiscovered) event()     {}

func (e SeedDiscovered) MarshalJSON() ([]byte, error) {
	type alias SeedDiscovered
	return jsontag.Marshal(string(KindSeedDiscovered), alias(e))
}

// SeedDropped reports that a peer stopped seeding a repository.
type SeedDropped struct {
	RID meshcfg.RepoID `json:"rid"`
	NID meshcfg.NodeID `json:"nid"`
}

func (SeedDropped) Kind() Kind { return KindSeedDropped }
func (SeedDropped) event()     {}

func (e SeedDropped) MarshalJSON() ([]byte, error) {
	type alias SeedDropped
	return jsontag.Marshal(string(KindSeedDropped), alias(e))
}

// PeerConnected reports a new peer session.
type PeerConnected struct {
	NID meshcfg.NodeID `json:"nid"`
}

func (PeerConnected) Kind() Kind { return KindPeerConnected }
func (PeerConnected) event()     {}

func (e PeerConnected) MarshalJSON() ([]byte, error) {
	type alias PeerConnected
	return jsontag.Marshal(string(KindPeerConnected), alias(e))
}

// PeerDisconnected reports the end of a peer session.
type PeerDisconnected struct {
	NID    meshcfg.NodeID `json:"nid"`
	Reason string         `json:"reason"`
}

func (PeerDisconnected) Kind() Kind { return KindPeerDisconnected }
func (PeerDisconnected) event()     {}

func (e PeerDisconnected) MarshalJSON() ([]byte, error) {
	type alias PeerDisconnected
	return jsontag.Marshal(string(KindPeerDisconnected), alias(e))
}

// LocalRefsAnnounced reports that this node announced its own refs
// for a repository to the network.
type LocalRefsAnnounced struct {
	RID       meshcfg.RepoID    `json:"rid"`
	Refs      git.RefsAt        `json:"refs"`
	Timestamp meshcfg.Timestamp `json:"timestamp"`
}

func (LocalRefsAnnounced) Kind() Kind { return KindLocalRefsAnnounced }
func (LocalRefsAnnounced) event()     {}

func (e LocalRefsAnnounced) MarshalJSON() ([]byte, error) {
	type alias LocalRefsAnnounced
	return jsontag.Marshal(string(KindLocalRefsAnnounced), alias(e))
}

// InventoryAnnounced reports a peer announcing the repositories it
// hosts.
type InventoryAnnounced struct {
	NID       meshcfg.NodeID    `json:"nid"`
	Inventory []meshcfg.RepoID  `json:"inventory"`
	Timestamp meshcfg.Timestamp `json:"timestamp"`
}

func (InventoryAnnounced) Kind() Kind { return KindInventoryAnnounced }
func (InventoryAnnounced) event()     {}

func (e InventoryAnnounced) MarshalJSON() ([]byte, error) {
	type alias InventoryAnnounced
	return jsontag.Marshal(string(KindInventoryAnnounced), alias(e))
}

// RefsAnnounced reports a peer announcing updated refs for a
// repository.
type RefsAnnounced struct {
	NID       meshcfg.NodeID    `json:"nid"`
	RID       meshcfg.RepoID    `json:"rid"`
	Refs      []git.RefsAt      `json:"refs"`
	Timestamp meshcfg.Timestamp `json:"timestamp"`
}

func (RefsAnnounced) Kind() Kind { return KindRefsAnnounced }
func (RefsAnnounced) event()     {}

func (e RefsAnnounced) MarshalJSON() ([]byte, error) {
	type alias RefsAnnounced
	return jsontag.Marshal(string(KindRefsAnnounced), alias(e))
}

// NodeAnnounced reports a peer announcing itself: its alias, feature
// set, and dial addresses.
type NodeAnnounced struct {
	NID       meshcfg.NodeID    `json:"nid"`
	Alias     meshcfg.Alias     `json:"alias"`
	Timestamp meshcfg.Timestamp `json:"timestamp"`
	Features  meshcfg.Features  `json:"features"`
	Addresses []meshcfg.Address `json:"addresses"`
}

func (NodeAnnounced) Kind() Kind { return KindNodeAnnounced }
func (NodeAnnounced) event()     {}

func (e NodeAnnounced) MarshalJSON() ([]byte, error) {
	type alias NodeAnnounced
	return jsontag.Marshal(string(KindNodeAnnounced), alias(e))
}

// UploadPack wraps one lifecycle event of an upload-pack process
// serving a fetching peer.
type UploadPack struct {
	Event uploadpack.Event `json:"uploadPack"`
}

func (UploadPack) Kind() Kind { return KindUploadPack }
func (UploadPack) event()     {}

func (e UploadPack) MarshalJSON() ([]byte, error) {
	type alias UploadPack
	return jsontag.Marshal(string(KindUploadPack), alias(e))
}

func (e *UploadPack) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Event json.RawMessage `json:"uploadPack"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	inner, err := uploadpack.Unmarshal(wrapper.Event)
	if err != nil {
		return err
	}
	e.Event = inner
	return nil
}

// Unmarshal decodes an event from its tagged wire form.
func Unmarshal(data []byte) (Event, error) {
	kind, err := jsontag.Kind(data)
	if err != nil {
		return nil, err
	}
	switch Kind(kind) {
	case KindRefsFetched:
		var v RefsFetched
		err = json.Unmarshal(data, &v)
		return v, err
	case KindRefsSynced:
		var v RefsSynced
		err = json.Unmarshal(data, &v)
		return v, err
	case KindSeedDiscovered:
		var v SeedDiscovered
		err = json.Unmarshal(data, &v)
		return v, err
	case KindSeedDropped:
		var v SeedDropped
		err = json.Unmarshal(data, &v)
		return v, err
	case KindPeerConnected:
		var v PeerConnected
		err = json.Unmarshal(data, &v)
		return v, err
	case KindPeerDisconnected:
		var v PeerDisconnected
		err = json.Unmarshal(data, &v)
		return v, err
	case KindLocalRefsAnnounced:
		var v LocalRefsAnnounced
		err = json.Unmarshal(data, &v)
		return v, err
	case KindInventoryAnnounced:
		var v InventoryAnnounced
		err = json.Unmarshal(data, &v)
		return v, err
	case KindRefsAnnounced:
		var v RefsAnnounced
		err = json.Unmarshal(data, &v)
		return v, err
	case KindNodeAnnounced:
		var v NodeAnnounced
		err = json.Unmarshal(data, &v)
		return v, err
	case KindUploadPack:
		var v UploadPack
		err = json.Unmarshal(data, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown event type %q", kind)
}
