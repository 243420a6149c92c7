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

// Package session provides in-memory tracking of per-connection state for a
// redlite server process (spec.md §4.8).
//
// A Session is created when a connection is accepted and removed when it
// closes. It is never persisted: CLIENT LIST and CLIENT INFO only ever
// describe connections currently held open by this process, not history.
//
// # Basic Usage
//
//	mgr := session.NewManager(session.DefaultConfig())
//	defer mgr.Close()
//
//	id := mgr.NextClientID()
//	s := session.New(strconv.FormatInt(id, 10), conn.RemoteAddr().String())
//	if err := mgr.Register(s); err != nil {
//	    // duplicate client id, should not happen
//	}
//	defer mgr.Remove(s.ClientID)
//
// # Transactions
//
// MULTI/EXEC/DISCARD move a Session between ModeNormal and ModeTransaction:
//
//	if err := s.StartMulti(); err != nil {
//	    // already in MULTI
//	}
//	s.QueueCommand("SET", [][]byte{[]byte("k"), []byte("v")})
//	// ... on EXEC, the router drains s.TxQueue and replays each command
//	if err := s.EndMulti(); err != nil {
//	    // not in MULTI
//	}
//
// # Optimistic Locking
//
// WATCH records the version a key had when watched; EXEC aborts (returns a
// null reply) if any watched key's version changed since:
//
//	s.Watch(0, "balance", currentVersion)
//	// ... before EXEC, the router re-reads each watched key's version and
//	// compares against the recorded value.
//
// # Pub/Sub
//
// Subscribing moves a Session into ModeSubscribed, which the command router
// uses to reject all but (P)SUBSCRIBE, (P)UNSUBSCRIBE, PING, and QUIT:
//
//	s.Subscribe("news")
//	if s.Mode == session.ModeSubscribed {
//	    // router restricts the command set
//	}
package session
