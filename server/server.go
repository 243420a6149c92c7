// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package server implements the TCP mode described by spec.md §6: a RESP
// accept loop in front of one engine/supervisor.Supervisor, one
// engine/session.Session per connection, and asynchronous pub/sub push
// delivery for SUBSCRIBE/PSUBSCRIBE connections.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/redlite-io/redlite/engine/notify"
	"github.com/redlite-io/redlite/engine/router"
	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/observability/logging"
	"github.com/redlite-io/redlite/server/resp"
)

// pushBacklog bounds how many replies (command results plus async pub/sub
// pushes) a connection's writer goroutine will buffer before a slow
// client starts blocking its own command processing.
const pushBacklog = 128

// Server accepts TCP connections and dispatches RESP frames through a
// router.Router, one engine/session.Session per connection.
type Server struct {
	addr   string
	rt     *router.Router
	logger logging.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*conn]struct{}
}

// New builds a Server bound to addr; it does not listen until Serve runs.
func New(addr string, rt *router.Router, logger logging.Logger) *Server {
	return &Server{addr: addr, rt: rt, logger: logger, conns: make(map[*conn]struct{})}
}

// Serve listens on s.addr and accepts connections until ctx is canceled or
// the listener fails. Each connection is handled on its own goroutine
// under an errgroup so Serve returns once every in-flight connection
// handler has actually exited, not just once the accept loop stops.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	for {
		nc, err := ln.Accept()
		if err != nil {
			if gctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn(ctx, "accept failed", logging.Error(err))
			continue
		}
		c := s.newConn(nc)
		group.Go(func() error {
			c.serve(ctx)
			return nil
		})
	}

	return group.Wait()
}

// Close stops accepting new connections. It does not close connections
// already accepted; each keeps running until its client disconnects or a
// read on it fails.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// conn holds one connection's I/O and pub/sub subscription state.
type conn struct {
	srv  *Server
	nc   net.Conn
	sess *session.Session

	writeCh chan resp.Value

	mu    sync.Mutex
	chans map[string]*subEntry
	pats  map[string]*subEntry
}

// subEntry pairs a live notify.Subscription with the stop signal for its
// pump goroutine: Subscription.Close only deregisters from the bus, it
// never closes Messages(), so pump needs its own teardown signal to stop
// ranging over a channel nothing will ever close.
type subEntry struct {
	sub  *notify.Subscription
	stop chan struct{}
}

func (s *Server) newConn(nc net.Conn) *conn {
	id := uuid.NewString()
	c := &conn{
		srv:     s,
		nc:      nc,
		sess:    session.New(id, nc.RemoteAddr().String()),
		writeCh: make(chan resp.Value, pushBacklog),
		chans:   make(map[string]*subEntry),
		pats:    make(map[string]*subEntry),
	}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (c *conn) serve(ctx context.Context) {
	defer c.cleanup()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()

	reader := bufio.NewReader(c.nc)
	for {
		args, err := resp.ReadCommand(reader)
		if err != nil {
			if err != io.EOF {
				c.srv.logger.Debug(ctx, "connection read error", logging.String("addr", c.sess.Addr), logging.Error(err))
			}
			break
		}
		if len(args) == 0 {
			continue
		}
		c.dispatch(ctx, args)
	}

	close(c.writeCh)
	wg.Wait()
}

// dispatch runs one command through the router and forwards its reply,
// then performs the actual NotificationBus (un)registration SUBSCRIBE/
// PSUBSCRIBE/UNSUBSCRIBE/PUNSUBSCRIBE need: Dispatch itself only updates
// session bookkeeping for those commands (engine/router/commands_pubsub.go),
// since the router has no connection to push messages over.
func (c *conn) dispatch(ctx context.Context, args [][]byte) {
	name := strings.ToUpper(string(args[0]))
	result := c.srv.rt.Dispatch(ctx, c.sess, args)

	switch name {
	case "SUBSCRIBE":
		c.subscribeChannels(toNames(args[1:]))
	case "PSUBSCRIBE":
		c.subscribePatterns(toNames(args[1:]))
	case "UNSUBSCRIBE":
		c.unsubscribeChannels(toNames(args[1:]))
	case "PUNSUBSCRIBE":
		c.unsubscribePatterns(toNames(args[1:]))
	}

	c.deliver(name, result)
}

// deliver writes result to the connection. SUBSCRIBE/UNSUBSCRIBE/
// PSUBSCRIBE/PUNSUBSCRIBE pack one confirmation frame per requested name
// into a single outer array (subAckValue); a real client expects each as
// its own top-level reply, so those four unwrap the array here instead of
// sending it as one nested reply.
func (c *conn) deliver(name string, result resp.Value) {
	switch name {
	case "SUBSCRIBE", "UNSUBSCRIBE", "PSUBSCRIBE", "PUNSUBSCRIBE":
		if result.Kind == resp.KindArray && !result.IsNullArray {
			for _, frame := range result.Array {
				c.writeCh <- frame
			}
			return
		}
	}
	c.writeCh <- result
}

func toNames(args [][]byte) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = string(a)
	}
	return names
}

func (c *conn) subscribeChannels(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if _, ok := c.chans[n]; ok {
			continue
		}
		sub, err := c.srv.rt.Notify().Subscribe(n)
		if err != nil {
			continue
		}
		entry := &subEntry{sub: sub, stop: make(chan struct{})}
		c.chans[n] = entry
		go c.pump(entry)
	}
}

func (c *conn) subscribePatterns(patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range patterns {
		if _, ok := c.pats[p]; ok {
			continue
		}
		sub, err := c.srv.rt.Notify().PSubscribe(p)
		if err != nil {
			continue
		}
		entry := &subEntry{sub: sub, stop: make(chan struct{})}
		c.pats[p] = entry
		go c.pump(entry)
	}
}

func (c *conn) unsubscribeChannels(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(names) == 0 {
		for n, entry := range c.chans {
			entry.sub.Close()
			close(entry.stop)
			delete(c.chans, n)
		}
		return
	}
	for _, n := range names {
		if entry, ok := c.chans[n]; ok {
			entry.sub.Close()
			close(entry.stop)
			delete(c.chans, n)
		}
	}
}

func (c *conn) unsubscribePatterns(patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(patterns) == 0 {
		for p, entry := range c.pats {
			entry.sub.Close()
			close(entry.stop)
			delete(c.pats, p)
		}
		return
	}
	for _, p := range patterns {
		if entry, ok := c.pats[p]; ok {
			entry.sub.Close()
			close(entry.stop)
			delete(c.pats, p)
		}
	}
}

// pump forwards a subscription's messages to the connection's writer
// until entry.stop is closed by an explicit (P)UNSUBSCRIBE or connection
// cleanup; Subscription.Close only deregisters from the bus; it never
// closes Messages(), so ranging over it alone would leak this goroutine.
func (c *conn) pump(entry *subEntry) {
	for {
		select {
		case <-entry.stop:
			return
		case msg, ok := <-entry.sub.Messages():
			if !ok {
				return
			}
			frame := []resp.Value{resp.Bulk([]byte("message")), resp.Bulk([]byte(msg.Channel)), resp.Bulk(msg.Payload)}
			if msg.Pattern != "" {
				frame = []resp.Value{resp.Bulk([]byte("pmessage")), resp.Bulk([]byte(msg.Pattern)), resp.Bulk([]byte(msg.Channel)), resp.Bulk(msg.Payload)}
			}
			select {
			case c.writeCh <- resp.Array(frame...):
			case <-entry.stop:
				return
			}
		}
	}
}

func (c *conn) writeLoop() {
	w := bufio.NewWriter(c.nc)
	for v := range c.writeCh {
		if err := resp.Encode(w, v); err != nil {
			return
		}
	}
}

func (c *conn) cleanup() {
	c.mu.Lock()
	for _, entry := range c.chans {
		entry.sub.Close()
		close(entry.stop)
	}
	for _, entry := range c.pats {
		entry.sub.Close()
		close(entry.stop)
	}
	c.mu.Unlock()
	c.nc.Close()

	c.srv.mu.Lock()
	delete(c.srv.conns, c)
	c.srv.mu.Unlock()
}
