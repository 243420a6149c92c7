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

// Package redlite is the in-process library entry point (spec.md §2's
// "library mode"): Open builds a full Engine (StorageBackend through
// CommandRouter) from a config.Config and returns a Client a host
// application calls directly, with no RESP socket in between. Blocking
// and pub/sub commands fail with UNSUPPORTED_IN_EMBEDDED, same as the
// wire-protocol server would report for a library-mode connection.
package redlite

import (
	"context"
	"fmt"

	"github.com/redlite-io/redlite/config"
	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/engine/supervisor"
	"github.com/redlite-io/redlite/server/resp"
)

// Option configures a Client's underlying config.Config at Open time.
type Option func(*config.Config)

// WithStoragePath overrides the database file (or DSN for postgres).
func WithStoragePath(path string) Option {
	return func(c *config.Config) { c.Storage.Path = path }
}

// WithBackend selects the relational engine: "sqlite" or "postgres".
func WithBackend(backend string) Option {
	return func(c *config.Config) { c.Storage.Backend = backend }
}

// WithCacheMB overrides the page-cache tuning knob.
func WithCacheMB(mb int) Option {
	return func(c *config.Config) { c.Storage.CacheMB = mb }
}

// WithHistory enables the HistorySubsystem with a default retention
// policy for every key unless overridden per-key/per-db at runtime.
func WithHistory(policy config.HistoryConfig) Option {
	return func(c *config.Config) { c.History = policy }
}

// WithConfig replaces the whole config.Config, for callers that built one
// via config.LoadFromFile; later options still apply on top of it.
func WithConfig(cfg *config.Config) Option {
	return func(c *config.Config) { *c = *cfg }
}

// Client is a library-mode handle to one open Engine: one Supervisor
// plus one session.Session (library callers are single-connection by
// construction, spec.md §2).
type Client struct {
	sup  *supervisor.Supervisor
	sess *session.Session
}

// Open builds every Engine subsystem and returns a ready Client. The
// returned Client is not safe for concurrent use by multiple goroutines
// issuing commands against the same logical session (MULTI/WATCH state
// is per-session). Each Open builds its own Supervisor, StorageBackend and
// KeyRegistry, so Clients opened on the same database file share only that
// file.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redlite: invalid config: %w", err)
	}

	sup, err := supervisor.Open(ctx, cfg, true)
	if err != nil {
		return nil, err
	}

	return &Client{
		sup:  sup,
		sess: session.New("embedded", "in-process"),
	}, nil
}

// Close stops the background sweeper and closes the storage backend.
func (c *Client) Close(ctx context.Context) error {
	return c.sup.Close(ctx)
}

// Select changes the library session's active logical database, same as
// the SELECT command over the wire.
func (c *Client) Select(db int) {
	c.sess.DB = db
}

// Do runs one command against the Engine and returns its RESP reply
// verbatim; Value's accessors (see server/resp) decode it. This is the
// same entry point server/server.go calls per frame, so library and
// server mode observe identical command semantics.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, fmt.Errorf("redlite: Do requires at least a command name")
	}
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	v := c.sup.Router().Dispatch(ctx, c.sess, raw)
	if v.Kind == resp.KindError {
		return v, &CommandError{Message: v.Str}
	}
	return v, nil
}

// CommandError wraps a RESP error reply ("-TAG message") so library
// callers can use errors.As instead of string-matching Value.Str.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// Get runs GET and returns (value, found). A missing key is not an
// error: GET replies with a null bulk string, decoded here as found=false.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.Do(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}
	if v.Bulk == nil {
		return nil, false, nil
	}
	return v.Bulk, true, nil
}

// Set runs SET.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.Do(ctx, "SET", key, value)
	return err
}

// Del runs DEL and returns the number of keys removed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	args := append([]string{"DEL"}, keys...)
	v, err := c.Do(ctx, args...)
	if err != nil {
		return 0, err
	}
	return v.Int, nil
}

// Expire runs EXPIRE with the given number of seconds.
func (c *Client) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	v, err := c.Do(ctx, "EXPIRE", key, fmt.Sprintf("%d", seconds))
	if err != nil {
		return false, err
	}
	return v.Int == 1, nil
}
