// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package uploadpack defines the lifecycle events of a git
// upload-pack process serving repository data to a fetching peer.
package uploadpack

import (
	"encoding/json"
	"fmt"

	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/util/jsontag"
)

// Kind is the wire discriminant of an upload-pack event.
type Kind string

const (
	KindWrite Kind = "write"
	KindDone  Kind = "done"
	KindError Kind = "error"
)

// Event is one observation of a running upload-pack process.
type Event interface {
	Kind() Kind
	uploadPackEvent()
}

// Progress counts what an upload-pack process has sent so far.
type Progress struct {
	// Transmitted is the number of packfile bytes written to the
	// fetching peer.
	Transmitted uint64 `json:"transmitted"`
}

// Write reports pack data flowing to the fetching peer.
type Write struct {
	RID      meshcfg.RepoID `json:"rid"`
	Remote   meshcfg.NodeID `json:"remote"`
	Progress Progress       `json:"progress"`
}

func (Write) Kind() Kind { return KindWrite }
func (Write) uploadPackEvent() {}

func (e Write) MarshalJSON() ([]byte, error) {
	type alias Write
	return jsontag.Marshal(string(KindWrite), alias(e))
}

// Done reports that the upload-pack process exited.
type Done struct {
	RID    meshcfg.RepoID `json:"rid"`
	Remote meshcfg.NodeID `json:"remote"`
	// Status is the process exit status.
	Status int `json:"status"`
}

func (Done) Kind() Kind { return KindDone }
func (Done) uploadPackEvent() {}

func (e Done) MarshalJSON() ([]byte, error) {
	type alias Done
	return jsontag.Marshal(string(KindDone), alias(e))
}

// Error reports that the upload-pack process failed before
// completing.
type Error struct {
	RID    meshcfg.RepoID `json:"rid"`
	Remote meshcfg.NodeID `json:"remote"`
	Err    string         `json:"err"`
}

func (Error) Kind() Kind { return KindError }
func (Error) uploadPackEvent() {}

func (e Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return jsontag.Marshal(string(KindError), alias(e))
}

// Unmarshal decodes a tagged upload-pack event.
func Unmarshal(data []byte) (Event, error) {
	kind, err := jsontag.Kind(data)
	if err != nil {
		return nil, err
	}
	switch Kind(kind) {
	case KindWrite:
		var v Write
		err = json.Unmarshal(data, &v)
		return v, err
	case KindDone:
		var v Done
		err = json.Unmarshal(data, &v)
		return v, err
	case KindError:
		var v Error
		err = json.Unmarshal(data, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown upload-pack event type %q", kind)
}
