// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package control implements the local control API of gitmeshd: an
// HTTP server, normally bound to a unix socket, through which local
// clients observe the node's live activity and trigger node
// operations.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/creachadair/taskgroup"
	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node"
	"gitmesh.dev/gitmesh/node/events"
	"gitmesh.dev/gitmesh/node/events/uploadpack"
	"gitmesh.dev/gitmesh/types/logger"
)

// APIHost is the dummy hostname clients use in control API request
// URLs. The connection is dialed to the socket, never to this name.
const APIHost = "local-gitmeshd.sock"

// maxWaitTimeout bounds the server-side blocking of the wait-synced
// endpoint. Clients wanting to wait longer re-request.
const maxWaitTimeout = 5 * time.Minute

// Server serves the control API for one node.
type Server struct {
	logf logger.Logf
	node *node.Node
}

// New returns a Server for n. logf may be nil to discard logs.
func New(n *node.Node, logf logger.Logf) *Server {
	if logf == nil {
		logf = logger.Discard
	}
	return &Server{logf: logf, node: n}
}

// Run serves the control API on ln until ctx is canceled. Streaming
// requests are terminated abruptly at shutdown; clients observe EOF.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler: &Handler{
			Node: s.node,
			Logf: logger.WithPrefix(s.logf, "control: "),
			// Connections arrive over the local socket; possession
			// of the socket is the access control.
			PermitRead:  true,
			PermitWrite: true,
		},
		ErrorLog: logger.StdLogger(logger.WithPrefix(s.logf, "control: http: ")),
	}
	var g taskgroup.Group
	g.Go(func() error {
		<-ctx.Done()
		return hs.Close()
	})
	g.Go(func() error {
		s.logf("control: serving on %v", ln.Addr())
		if err := hs.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// handlers maps an endpoint name (the path under /v0/) to its
// handler. Adding an entry here is all it takes to expose a new
// endpoint.
var handlers = map[string]func(*Handler, http.ResponseWriter, *http.Request){
	"status":        (*Handler).serveStatus,
	"events":        (*Handler).serveEvents,
	"announce-refs": (*Handler).serveAnnounceRefs,
	"wait-synced":   (*Handler).serveWaitSynced,
	"debug-emit":    (*Handler).serveDebugEmit,
}

// Handler dispatches control API requests against one node.
type Handler struct {
	Node *node.Node
	Logf logger.Logf

	// PermitRead allows observational endpoints. PermitWrite allows
	// endpoints that mutate node state or inject events; it implies
	// nothing about PermitRead.
	PermitRead  bool
	PermitWrite bool
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, "/v0/")
	if !ok {
		http.Error(w, "invalid control API path", http.StatusNotFound)
		return
	}
	fn, ok := handlers[name]
	if !ok {
		http.Error(w, "unknown endpoint", http.StatusNotFound)
		return
	}
	fn(h, w, r)
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	if !h.PermitRead {
		http.Error(w, "status access denied", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Node.Status())
}

// serveEvents streams node events as JSON lines, one tagged event per
// line, flushed as they happen. With ?rid=, only events concerning
// that repository are forwarded.
func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request) {
	if !h.PermitRead {
		http.Error(w, "events access denied", http.StatusForbidden)
		return
	}
	f, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "not a flusher", http.StatusInternalServerError)
		return
	}
	var rid meshcfg.RepoID
	if v := r.FormValue("rid"); v != "" {
		rid = meshcfg.RepoID(v)
	}

	sub := h.Node.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	f.Flush()

	ctx := r.Context()
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Chan():
			if !ok {
				// Node shut down, or this stream fell behind and was
				// pruned. Either way the stream is over.
				return
			}
			if !rid.IsZero() {
				if evRID, ok := eventRepo(ev); !ok || evRID != rid {
					continue
				}
			}
			if err := enc.Encode(ev); err != nil {
				h.Logf("events: encode: %v", err)
				return
			}
			f.Flush()
		}
	}
}

// eventRepo returns the repository an event concerns, if any.
func eventRepo(ev events.Event) (meshcfg.RepoID, bool) {
	switch ev := ev.(type) {
	case events.RefsFetched:
		return ev.RID, true
	case events.RefsSynced:
		return ev.RID, true
	case events.SeedDiscovered:
		return ev.RID, true
	case events.SeedDropped:
		return ev.RID, true
	case events.LocalRefsAnnounced:
		return ev.RID, true
	case events.RefsAnnounced:
		return ev.RID, true
	case events.UploadPack:
		switch inner := ev.Event.(type) {
		case uploadpack.Write:
			return inner.RID, true
		case uploadpack.Done:
			return inner.RID, true
		case uploadpack.Error:
			return inner.RID, true
		}
	}
	return "", false
}

func (h *Handler) serveAnnounceRefs(w http.ResponseWriter, r *http.Request) {
	if !h.PermitWrite {
		http.Error(w, "announce-refs access denied", http.StatusForbidden)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "want POST", http.StatusMethodNotAllowed)
		return
	}
	rid := meshcfg.RepoID(r.FormValue("rid"))
	if rid.IsZero() {
		http.Error(w, "missing rid", http.StatusBadRequest)
		return
	}
	at := git.ZeroOid
	if v := r.FormValue("at"); v != "" {
		var err error
		if at, err = git.ParseOid(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	ev := h.Node.AnnounceRefs(rid, at)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

// serveWaitSynced blocks until a peer acknowledges our refs for the
// requested repository, then returns the refsSynced event. It fails
// with 504 if the timeout elapses first and 502 if the node shuts
// down, so clients can tell a retryable timeout from a dead source.
func (h *Handler) serveWaitSynced(w http.ResponseWriter, r *http.Request) {
	if !h.PermitRead {
		http.Error(w, "wait-synced access denied", http.StatusForbidden)
		return
	}
	rid := meshcfg.RepoID(r.FormValue("rid"))
	if rid.IsZero() {
		http.Error(w, "missing rid", http.StatusBadRequest)
		return
	}
	var oid git.Oid
	if v := r.FormValue("oid"); v != "" {
		var err error
		if oid, err = git.ParseOid(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	timeout := time.Minute
	if v := r.FormValue("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "bad timeout", http.StatusBadRequest)
			return
		}
		timeout = min(d, maxWaitTimeout)
	}

	sub := h.Node.Subscribe()
	defer sub.Close()

	ev, err := events.Wait(sub, func(ev events.Event) (events.RefsSynced, bool) {
		synced, ok := ev.(events.RefsSynced)
		if !ok || synced.RID != rid {
			return events.RefsSynced{}, false
		}
		if !oid.IsZero() && synced.At != oid {
			return events.RefsSynced{}, false
		}
		return synced, true
	}, timeout)
	switch {
	case errors.Is(err, events.ErrTimeout):
		http.Error(w, "timed out waiting for sync", http.StatusGatewayTimeout)
		return
	case errors.Is(err, events.ErrDisconnected):
		http.Error(w, "node shut down", http.StatusBadGateway)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ev)
}

// serveDebugEmit injects an event into the node's stream. Debugging
// facility; requires write access.
func (h *Handler) serveDebugEmit(w http.ResponseWriter, r *http.Request) {
	if !h.PermitWrite {
		http.Error(w, "debug-emit access denied", http.StatusForbidden)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "want POST", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := events.Unmarshal(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad event: %v", err), http.StatusBadRequest)
		return
	}
	h.Node.Emit(ev)
	w.WriteHeader(http.StatusNoContent)
}
