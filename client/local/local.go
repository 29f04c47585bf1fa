// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package local is a client for the gitmeshd control API, speaking
// HTTP to the daemon over its local unix socket.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"gitmesh.dev/gitmesh/control"
	"gitmesh.dev/gitmesh/git"
	"gitmesh.dev/gitmesh/meshcfg"
	"gitmesh.dev/gitmesh/node"
	"gitmesh.dev/gitmesh/node/events"
	"gitmesh.dev/gitmesh/paths"
)

// Client is a client to the gitmeshd control API on the local
// machine. Its zero value is valid to use.
//
// Exported fields should be set before using methods on the type and
// not changed thereafter.
type Client struct {
	// Socket specifies an alternate path to the gitmeshd socket. If
	// empty, a platform default is used.
	Socket string

	// Dial optionally specifies an alternate func that connects to
	// the local daemon. If nil, the unix socket is dialed.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	httpClient     *http.Client
	httpClientOnce sync.Once
}

func (c *Client) socket() string {
	if c.Socket != "" {
		return c.Socket
	}
	return paths.DefaultSocket()
}

func (c *Client) dialer() func(ctx context.Context, network, addr string) (net.Conn, error) {
	if c.Dial != nil {
		return c.Dial
	}
	return c.defaultDialer
}

func (c *Client) defaultDialer(ctx context.Context, network, addr string) (net.Conn, error) {
	if addr != control.APIHost+":80" {
		return nil, fmt.Errorf("unexpected URL address %q", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "unix", c.socket())
}

func (c *Client) client() *http.Client {
	c.httpClientOnce.Do(func() {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: c.dialer(),
			},
		}
	})
	return c.httpClient
}

// doLocalRequest makes an HTTP request to the local daemon. URLs are
// of the form http://local-gitmeshd.sock/v0/status; the hostname is a
// placeholder and the connection always goes to the socket.
func (c *Client) doLocalRequest(req *http.Request) (*http.Response, error) {
	res, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach gitmeshd at %v: %w", c.socket(), err)
	}
	return res, nil
}

// errorFromBody turns a non-200 response into an error carrying the
// server's message.
func errorFromBody(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s", res.Status, body)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "http://"+control.APIHost+path, nil)
	if err != nil {
		return err
	}
	res, err := c.doLocalRequest(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return errorFromBody(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Status returns the daemon's status snapshot.
func (c *Client) Status(ctx context.Context) (node.Status, error) {
	var st node.Status
	err := c.get(ctx, "/v0/status", &st)
	return st, err
}

// AnnounceRefs asks the daemon to announce its refs for rid, at the
// given signed-refs head if non-zero. It returns the emitted event.
func (c *Client) AnnounceRefs(ctx context.Context, rid meshcfg.RepoID, at git.Oid) (events.LocalRefsAnnounced, error) {
	var zero events.LocalRefsAnnounced
	v := url.Values{"rid": {string(rid)}}
	if !at.IsZero() {
		v.Set("at", string(at))
	}
	req, err := http.NewRequestWithContext(ctx, "POST",
		"http://"+control.APIHost+"/v0/announce-refs?"+v.Encode(), nil)
	if err != nil {
		return zero, err
	}
	res, err := c.doLocalRequest(req)
	if err != nil {
		return zero, err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return zero, errorFromBody(res)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, err
	}
	ev, err := events.Unmarshal(body)
	if err != nil {
		return zero, err
	}
	announced, ok := ev.(events.LocalRefsAnnounced)
	if !ok {
		return zero, fmt.Errorf("unexpected event type %q", ev.Kind())
	}
	return announced, nil
}

// WaitRefsSynced blocks until a peer acknowledges this node's refs
// for rid (at the given commit if oid is non-zero), or until timeout.
// Timeout and daemon shutdown surface as [events.ErrTimeout] and
// [events.ErrDisconnected] respectively, the same failures a local
// waiter would see.
func (c *Client) WaitRefsSynced(ctx context.Context, rid meshcfg.RepoID, oid git.Oid, timeout time.Duration) (events.RefsSynced, error) {
	var zero events.RefsSynced
	v := url.Values{
		"rid":     {string(rid)},
		"timeout": {timeout.String()},
	}
	if !oid.IsZero() {
		v.Set("oid", string(oid))
	}
	req, err := http.NewRequestWithContext(ctx, "GET",
		"http://"+control.APIHost+"/v0/wait-synced?"+v.Encode(), nil)
	if err != nil {
		return zero, err
	}
	res, err := c.doLocalRequest(req)
	if err != nil {
		return zero, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case 200:
	case http.StatusGatewayTimeout:
		return zero, events.ErrTimeout
	case http.StatusBadGateway:
		return zero, events.ErrDisconnected
	default:
		return zero, errorFromBody(res)
	}
	var synced events.RefsSynced
	if err := json.NewDecoder(res.Body).Decode(&synced); err != nil {
		return zero, err
	}
	return synced, nil
}

// DebugEmit injects ev into the daemon's event stream. Debugging
// facility.
func (c *Client) DebugEmit(ctx context.Context, ev events.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST",
		"http://"+control.APIHost+"/v0/debug-emit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.doLocalRequest(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		return errorFromBody(res)
	}
	return nil
}

// WatchEvents subscribes to the daemon's event stream. With a
// non-zero rid, only events concerning that repository are delivered.
//
// The context is used for the life of the watch, not just the call.
// The returned watcher's Close method must be called when done.
func (c *Client) WatchEvents(ctx context.Context, rid meshcfg.RepoID) (*EventsWatcher, error) {
	v := url.Values{}
	if !rid.IsZero() {
		v.Set("rid", string(rid))
	}
	req, err := http.NewRequestWithContext(ctx, "GET",
		"http://"+control.APIHost+"/v0/events?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.doLocalRequest(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		defer res.Body.Close()
		return nil, errorFromBody(res)
	}
	return &EventsWatcher{
		ctx:     ctx,
		httpRes: res,
		dec:     json.NewDecoder(res.Body),
	}, nil
}

// EventsWatcher is an active subscription to the daemon's event
// stream. It must be closed when done.
type EventsWatcher struct {
	ctx     context.Context
	httpRes *http.Response
	dec     *json.Decoder

	mu     sync.Mutex
	closed bool
}

// Close stops the watcher and releases its resources.
func (w *EventsWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.httpRes.Body.Close()
}

// Next returns the next event from the stream. It returns io.EOF when
// the daemon closes the stream; if the watch context is done, that
// error is returned instead.
func (w *EventsWatcher) Next() (events.Event, error) {
	var raw json.RawMessage
	if err := w.dec.Decode(&raw); err != nil {
		if cerr := w.ctx.Err(); cerr != nil {
			err = cerr
		} else if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return nil, err
	}
	return events.Unmarshal(raw)
}
