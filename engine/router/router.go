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

// Package router implements CommandRouter (spec.md §4.11): a stateless
// opcode dispatcher that consults the session's mode/auth gate, invokes
// the matching DataTypeOps/KeyRegistry/HistorySubsystem/NotificationBus
// operation, and translates the result (or typed error) into a resp.Value
// reply. Command handlers are registered in a name->spec table keyed by
// upper-cased command name.
package router

import (
	"context"
	"strings"

	"github.com/redlite-io/redlite/engine/auth"
	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/history"
	"github.com/redlite-io/redlite/engine/keyregistry"
	"github.com/redlite-io/redlite/engine/notify"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
	"github.com/redlite-io/redlite/storage"
)

// mode gates which commands a session may run right now (spec.md §4.8).
type mode int

const (
	modeAny mode = iota
	modeNormalOnly
	modeSubscribeOK
	modeBlockingForbidden
)

// handlerFunc executes one command against the engine and returns the
// reply to send back to the client.
type handlerFunc func(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value

type commandSpec struct {
	name    string
	minArgs int // not counting the command name itself
	mode    mode
	fn      handlerFunc
}

// Router is the stateless CommandRouter. It is safe for concurrent use
// across sessions; all mutable state lives in the Session passed to
// Dispatch or in the engine components it wraps.
type Router struct {
	ops      *datatype.Ops
	registry *keyregistry.Registry
	history  *history.Recorder
	notify   *notify.Bus
	backend  storage.Backend
	gate     *auth.Gate
	embedded bool
	now      keyregistry.Clock

	commands map[string]commandSpec
}

// Option configures a Router at construction time.
type Option func(*Router)

// WithHistory wires the HistorySubsystem so HISTORY commands work.
func WithHistory(h *history.Recorder) Option { return func(r *Router) { r.history = h } }

// WithGate wires an auth.Gate; a nil or unconfigured gate leaves auth
// disabled.
func WithGate(g *auth.Gate) Option { return func(r *Router) { r.gate = g } }

// WithEmbedded marks the router as running in library (embedded) mode:
// blocking and pub/sub commands fail with UNSUPPORTED_IN_EMBEDDED before
// ever touching the NotificationBus.
func WithEmbedded(embedded bool) Option { return func(r *Router) { r.embedded = embedded } }

// WithClock overrides the wall clock used to resolve SET EX/PX and
// EXPIRE/PEXPIRE into absolute deadlines; Supervisor wires its shared
// clock here in production, tests use a deterministic one.
func WithClock(c keyregistry.Clock) Option { return func(r *Router) { r.now = c } }

// New builds a Router. bus may be nil only when embedded is set via
// WithEmbedded(true); Supervisor always provides one.
func New(ops *datatype.Ops, registry *keyregistry.Registry, backend storage.Backend, bus *notify.Bus, opts ...Option) *Router {
	r := &Router{
		ops:      ops,
		registry: registry,
		backend:  backend,
		notify:   bus,
		gate:     &auth.Gate{},
		now:      keyregistry.WallClockMillis,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.commands = buildCommandTable()
	return r
}

// Dispatch parses args[0] as the opcode, gates it against sess's mode and
// auth state, and invokes the matching operation. It never panics on
// malformed input: every failure mode becomes a resp.Value error reply.
func (rt *Router) Dispatch(ctx context.Context, sess *session.Session, args [][]byte) resp.Value {
	if len(args) == 0 {
		return errValue(engerrors.New(engerrors.CategoryProtocol, "ERR", "empty command"))
	}
	name := strings.ToUpper(string(args[0]))
	sess.Touch()

	spec, ok := rt.commands[name]
	if !ok {
		if sess.Mode == session.ModeTransaction {
			sess.TxDirty = true
		}
		return errValue(engerrors.ErrUnknownCommand)
	}
	if len(args)-1 < spec.minArgs {
		if sess.Mode == session.ModeTransaction {
			sess.TxDirty = true
		}
		return errValue(engerrors.New(engerrors.CategorySyntax, "ERR", "wrong number of arguments for '"+strings.ToLower(name)+"' command"))
	}

	if err := rt.gateCommand(sess, name, spec); err != nil {
		return errValue(err)
	}

	if sess.Mode == session.ModeTransaction && !isTxControl(name) {
		sess.QueueCommand(name, args[1:])
		return resp.Simple("QUEUED")
	}

	return spec.fn(ctx, rt, sess, args[1:])
}

func isTxControl(name string) bool {
	switch name {
	case "MULTI", "EXEC", "DISCARD", "WATCH", "UNWATCH":
		return true
	}
	return false
}

// gateCommand enforces spec.md §4.8's per-mode command filters.
func (rt *Router) gateCommand(sess *session.Session, name string, spec commandSpec) error {
	if rt.gate.Required() && !sess.Authenticated {
		switch name {
		case "AUTH", "PING", "QUIT":
		default:
			return engerrors.ErrNoAuth
		}
	}

	if sess.Mode == session.ModeSubscribed {
		switch name {
		case "SUBSCRIBE", "UNSUBSCRIBE", "PSUBSCRIBE", "PUNSUBSCRIBE", "PING", "QUIT":
		default:
			return engerrors.ErrInSubscribeMode
		}
	}

	if sess.Mode == session.ModeTransaction {
		switch name {
		case "MULTI":
			return engerrors.ErrNestedMulti
		case "WATCH":
			return engerrors.ErrWatchInMulti
		}
		if spec.mode == modeBlockingForbidden {
			return engerrors.New(engerrors.CategorySession, "ERR", name+" is not allowed inside a transaction")
		}
	}

	if rt.embedded && spec.mode == modeBlockingForbidden {
		return engerrors.ErrUnsupportedInEmbedded
	}

	return nil
}

// Notify exposes the underlying NotificationBus so the server layer can
// register real *notify.Subscription objects for SUBSCRIBE/PSUBSCRIBE
// pushes; Dispatch itself only updates session bookkeeping for those
// commands (see commands_pubsub.go).
func (rt *Router) Notify() *notify.Bus { return rt.notify }

func errValue(err error) resp.Value {
	return resp.Err(engerrors.Tag(err) + " " + errMessage(err))
}

func errMessage(err error) string {
	var engErr *engerrors.Error
	if engerrors.As(err, &engErr) {
		return engErr.Message
	}
	return err.Error()
}
