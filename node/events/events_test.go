// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package events_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node/events"
	"gitmesh.dev/gitmesh/node/events/uploadpack"
)

const (
	nid   = meshcfg.NodeID("z6MkltRpzcq2ybm13yQpyre58JUeMvZY6toxPH1gTqvSnvqe")
	other = meshcfg.NodeID("z6Mkt67GdsW7715MEfRuP4pSZxJRJh6kj6Y48WRDVro9r1vM")
	rid   = meshcfg.RepoID("gitm:z42hL2jL4XNk6K8oHlaJ45hcMfexz")
)

func TestEventEncoding(t *testing.T) {
	tests := []struct {
		name string
		ev   events.Event
		want string
	}{
		{
			name: "refsFetched",
			ev: events.RefsFetched{
				Remote: nid,
				RID:    rid,
				Updated: []git.RefUpdate{
					git.Updated("refs/heads/master",
						"f2de534b1e9b5510a5bc8a9b922aa499b0064111",
						"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"),
					git.Created("refs/heads/feature", "a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"),
				},
			},
			want: `{"type":"refsFetched","remote":"` + string(nid) + `","rid":"` + string(rid) + `",` +
				`"updated":[` +
				`{"type":"updated","name":"refs/heads/master","old":"f2de534b1e9b5510a5bc8a9b922aa499b0064111","new":"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"},` +
				`{"type":"created","name":"refs/heads/feature","oid":"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"}]}`,
		},
		{
			name: "refsSynced",
			ev: events.RefsSynced{
				Remote: nid,
				RID:    rid,
				At:     "f2de534b1e9b5510a5bc8a9b922aa499b0064111",
			},
			want: `{"type":"refsSynced","remote":"` + string(nid) + `","rid":"` + string(rid) + `","at":"f2de534b1e9b5510a5bc8a9b922aa499b0064111"}`,
		},
		{
			name: "seedDiscovered",
			ev:   events.SeedDiscovered{RID: rid, NID: nid},
			want: `{"type":"seedDiscovered","rid":"` + string(rid) + `","nid":"` + string(nid) + `"}`,
		},
		{
			name: "seedDropped",
			ev:   events.SeedDropped{RID: rid, NID: nid},
			want: `{"type":"seedDropped","rid":"` + string(rid) + `","nid":"` + string(nid) + `"}`,
		},
		{
			name: "peerConnected",
			ev:   events.PeerConnected{NID: nid},
			want: `{"type":"peerConnected","nid":"` + string(nid) + `"}`,
		},
		{
			name: "peerDisconnected",
			ev:   events.PeerDisconnected{NID: nid, Reason: "connection reset"},
			want: `{"type":"peerDisconnected","nid":"` + string(nid) + `","reason":"connection reset"}`,
		},
		{
			name: "localRefsAnnounced",
			ev: events.LocalRefsAnnounced{
				RID:       rid,
				Refs:      git.RefsAt{Remote: nid, At: "a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"},
				Timestamp: 1700000000000,
			},
			want: `{"type":"localRefsAnnounced","rid":"` + string(rid) + `",` +
				`"refs":{"remote":"` + string(nid) + `","at":"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"},"timestamp":1700000000000}`,
		},
		{
			name: "inventoryAnnounced",
			ev: events.InventoryAnnounced{
				NID:       nid,
				Inventory: []meshcfg.RepoID{rid},
				Timestamp: 1700000000000,
			},
			want: `{"type":"inventoryAnnounced","nid":"` + string(nid) + `","inventory":["` + string(rid) + `"],"timestamp":1700000000000}`,
		},
		{
			name: "refsAnnounced",
			ev: events.RefsAnnounced{
				NID:       nid,
				RID:       rid,
				Refs:      []git.RefsAt{{Remote: other, At: "f2de534b1e9b5510a5bc8a9b922aa499b0064111"}},
				Timestamp: 1700000000000,
			},
			want: `{"type":"refsAnnounced","nid":"` + string(nid) + `","rid":"` + string(rid) + `",` +
				`"refs":[{"remote":"` + string(other) + `","at":"f2de534b1e9b5510a5bc8a9b922aa499b0064111"}],"timestamp":1700000000000}`,
		},
		{
			name: "nodeAnnounced",
			ev: events.NodeAnnounced{
				NID:       nid,
				Alias:     "alice",
				Timestamp: 1700000000000,
				Features:  meshcfg.FeatureSeed,
				Addresses: []meshcfg.Address{"seed.example.com:8776"},
			},
			want: `{"type":"nodeAnnounced","nid":"` + string(nid) + `","alias":"alice","timestamp":1700000000000,"features":1,"addresses":["seed.example.com:8776"]}`,
		},
		{
			name: "uploadPack write",
			ev: events.UploadPack{Event: uploadpack.Write{
				RID:      rid,
				Remote:   nid,
				Progress: uploadpack.Progress{Transmitted: 4096},
			}},
			want: `{"type":"uploadPack","uploadPack":{"type":"write","rid":"` + string(rid) + `","remote":"` + string(nid) + `","progress":{"transmitted":4096}}}`,
		},
		{
			name: "uploadPack done",
			ev: events.UploadPack{Event: uploadpack.Done{
				RID:    rid,
				Remote: nid,
				Status: 0,
			}},
			want: `{"type":"uploadPack","uploadPack":{"type":"done","rid":"` + string(rid) + `","remote":"` + string(nid) + `","status":0}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.ev)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("encoding mismatch\n got: %s\nwant: %s", got, tt.want)
			}

			back, err := events.Unmarshal(got)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.ev, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	if _, err := events.Unmarshal([]byte(`{"type":"flagDay"}`)); err == nil {
		t.Error("Unmarshal of unknown type succeeded, want error")
	}
	if _, err := events.Unmarshal([]byte(`{"nid":"z6Mk"}`)); err == nil {
		t.Error("Unmarshal without discriminant succeeded, want error")
	}
}

func TestEventsAreValues(t *testing.T) {
	// Events fan out by copy; mutating a delivered slice must not be
	// visible through another subscriber's copy of the header.
	e := events.NewEmitter[events.Event]()
	s1 := e.Subscribe()
	s2 := e.Subscribe()
	ev := events.RefsFetched{
		Remote:  nid,
		RID:     rid,
		Updated: []git.RefUpdate{git.Skipped("refs/heads/master", "f2de534b1e9b5510a5bc8a9b922aa499b0064111")},
	}
	e.Emit(ev)
	e.Close()
	got1 := <-s1.Chan()
	got2 := <-s2.Chan()
	if diff := cmp.Diff(got1, got2); diff != "" {
		t.Errorf("subscribers saw different events:\n%s", diff)
	}
}
