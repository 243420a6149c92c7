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

// Package datatype implements DataTypeOps (spec.md §4.3): the command
// surface for strings, hashes, lists, sets, sorted sets, streams, and
// consumer groups. Every command resolves its key through
// engine/keyregistry before touching a type table, so TTL and optimistic
// locking stay uniform, and reports tracked writes through a
// HistoryRecorder and key wake-ups through a Notifier, both optional.
package datatype

import (
	"context"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// HistoryRecorder is implemented by engine/history.Recorder; Ops holds
// one by interface so datatype never imports history directly (history
// does not import datatype either; Ops passes each snapshot to it).
type HistoryRecorder interface {
	RecordWrite(ctx context.Context, db int, name string, keyType keyregistry.KeyType, version int64, op string, snapshot []byte) error
}

// Notifier is implemented by engine/notify.Bus.
type Notifier interface {
	NotifyKey(db int, name string)
}

// nopHistory and nopNotifier satisfy HistoryRecorder/Notifier for library
// callers and tests that construct an Ops without either wired.
type nopHistory struct{}

func (nopHistory) RecordWrite(context.Context, int, string, keyregistry.KeyType, int64, string, []byte) error {
	return nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyKey(int, string) {}

// Ops implements DataTypeOps against a storage.Backend and
// engine/keyregistry.Registry.
type Ops struct {
	backend  storage.Backend
	registry *keyregistry.Registry
	history  HistoryRecorder
	notify   Notifier
	now      keyregistry.Clock
}

// Option configures an Ops at construction time.
type Option func(*Ops)

// WithHistory wires a HistoryRecorder; every mutating command reports its
// post-write snapshot through it.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Ops) { o.history = h }
}

// WithNotifier wires a Notifier; list pushes and stream appends poke it
// so blocking readers (BLPOP/BRPOP/XREAD BLOCK) wake up.
func WithNotifier(n Notifier) Option {
	return func(o *Ops) { o.notify = n }
}

// WithClock overrides the wall clock XADD uses for id generation; tests
// use this for deterministic ids, Supervisor wires its shared clock in
// production (spec.md §4.12: two clocks, both injectable).
func WithClock(c keyregistry.Clock) Option {
	return func(o *Ops) { o.now = c }
}

// New constructs an Ops. Omitting WithHistory/WithNotifier is valid: both
// default to no-ops, which is exactly library (embedded) mode behavior
// for history (opt-in, off by default) and matches NotificationBus's
// embedded-mode contract for notify.
func New(backend storage.Backend, registry *keyregistry.Registry, opts ...Option) *Ops {
	o := &Ops{backend: backend, registry: registry, history: nopHistory{}, notify: nopNotifier{}, now: keyregistry.WallClockMillis}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// recordHistory serializes the key's current full state and reports it;
// errors are returned to the caller since a tracked write that fails to
// record history should not silently diverge from storage.
func (o *Ops) recordHistory(ctx context.Context, db int, name string, t keyregistry.KeyType, version int64, op string) error {
	snap, err := o.Snapshot(ctx, db, name, t)
	if err != nil {
		return err
	}
	return o.history.RecordWrite(ctx, db, name, t, version, op, snap)
}

func (o *Ops) wake(db int, name string) {
	o.notify.NotifyKey(db, name)
}

// isNotFound reports whether err is the registry's ErrNotFound; absent
// keys are handled per-command since GET-like reads and write-or-create
// commands disagree on what "absent" means.
func isNotFound(err error) bool { return engerrors.Is(err, engerrors.ErrNotFound) }
