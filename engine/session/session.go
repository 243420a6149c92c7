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

// Package session tracks per-connection state, per spec.md §4.8 (Session &
// Connection Semantics): the selected database, MULTI/EXEC queues, WATCH'd
// keys, and pub/sub subscriptions.
package session

import (
	"time"
)

// Mode is the connection's current command-processing mode.
type Mode string

const (
	// ModeNormal processes commands immediately.
	ModeNormal Mode = "normal"

	// ModeTransaction queues commands after MULTI, until EXEC or DISCARD.
	ModeTransaction Mode = "transaction"

	// ModeSubscribed restricts the connection to (P)SUBSCRIBE/(P)UNSUBSCRIBE,
	// PING and QUIT while at least one subscription is active.
	ModeSubscribed Mode = "subscribed"
)

// QueuedCommand is one command buffered while Mode is ModeTransaction.
type QueuedCommand struct {
	Name string
	Args [][]byte
}

// WatchedKey records the version a key had at the time it was WATCHed, so
// EXEC can detect whether it changed since (spec.md §4.8 EXEC semantics).
type WatchedKey struct {
	DB      int
	Key     string
	Version int64
}

// Session holds all per-connection state for one client, addressed by
// ClientID (the connection's CLIENT ID, spec.md §4.8).
type Session struct {
	ClientID string
	Name     string
	Addr     string
	DB       int

	Authenticated bool
	Username      string

	Mode          Mode
	TxQueue       []QueuedCommand
	TxDirty       bool // set when a command inside MULTI failed to queue (bad arity/unknown cmd)
	Watched       []WatchedKey
	Subscriptions map[string]struct{}
	PatternSubs   map[string]struct{}

	CreatedAt    time.Time
	LastActivity time.Time
}

// New creates a Session for a freshly accepted connection.
func New(clientID, addr string) *Session {
	now := time.Now()
	return &Session{
		ClientID:      clientID,
		Addr:          addr,
		DB:            0,
		Mode:          ModeNormal,
		Subscriptions: make(map[string]struct{}),
		PatternSubs:   make(map[string]struct{}),
		CreatedAt:     now,
		LastActivity:  now,
	}
}

// Touch records command activity for idle-timeout bookkeeping.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// InMulti reports whether MULTI has been issued and EXEC/DISCARD has not.
func (s *Session) InMulti() bool {
	return s.Mode == ModeTransaction
}

// IsSubscribed reports whether the connection has any active subscription.
func (s *Session) IsSubscribed() bool {
	return len(s.Subscriptions) > 0 || len(s.PatternSubs) > 0
}

// StartMulti enters transaction mode with an empty queue. It returns
// ErrAlreadyInMulti if a transaction is already open.
func (s *Session) StartMulti() error {
	if s.Mode == ModeTransaction {
		return ErrAlreadyInMulti
	}
	s.Mode = ModeTransaction
	s.TxQueue = nil
	s.TxDirty = false
	return nil
}

// QueueCommand appends a command to the transaction queue.
func (s *Session) QueueCommand(name string, args [][]byte) {
	s.TxQueue = append(s.TxQueue, QueuedCommand{Name: name, Args: args})
}

// EndMulti leaves transaction mode, discarding the queue. It returns
// ErrNotInMulti if no transaction is open. Per spec.md's Open Question
// decision, DISCARD does not clear watches established before MULTI was
// issued, only those added since; callers that want full watch semantics
// should call ClearWatches separately.
func (s *Session) EndMulti() error {
	if s.Mode != ModeTransaction {
		return ErrNotInMulti
	}
	s.Mode = ModeNormal
	s.TxQueue = nil
	s.TxDirty = false
	return nil
}

// Watch records the current version of a key for optimistic-locking EXEC.
func (s *Session) Watch(db int, key string, version int64) {
	for _, w := range s.Watched {
		if w.DB == db && w.Key == key {
			return
		}
	}
	s.Watched = append(s.Watched, WatchedKey{DB: db, Key: key, Version: version})
}

// ClearWatches drops all watched keys, e.g. after EXEC or an explicit
// UNWATCH.
func (s *Session) ClearWatches() {
	s.Watched = nil
}

// Subscribe adds a channel subscription, entering subscribed mode from
// normal mode.
func (s *Session) Subscribe(channel string) {
	s.Subscriptions[channel] = struct{}{}
	if s.Mode == ModeNormal {
		s.Mode = ModeSubscribed
	}
}

// Unsubscribe removes a channel subscription, dropping back to normal mode
// once no subscriptions remain.
func (s *Session) Unsubscribe(channel string) {
	delete(s.Subscriptions, channel)
	s.maybeLeaveSubscribedMode()
}

// PSubscribe adds a pattern subscription.
func (s *Session) PSubscribe(pattern string) {
	s.PatternSubs[pattern] = struct{}{}
	if s.Mode == ModeNormal {
		s.Mode = ModeSubscribed
	}
}

// PUnsubscribe removes a pattern subscription.
func (s *Session) PUnsubscribe(pattern string) {
	delete(s.PatternSubs, pattern)
	s.maybeLeaveSubscribedMode()
}

func (s *Session) maybeLeaveSubscribedMode() {
	if s.Mode == ModeSubscribed && !s.IsSubscribed() {
		s.Mode = ModeNormal
	}
}
