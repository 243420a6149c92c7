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

package session

import (
	"testing"
)

func TestNewSession(t *testing.T) {
	s := New("1", "127.0.0.1:5555")

	if s.ClientID != "1" {
		t.Errorf("expected client id 1, got %s", s.ClientID)
	}
	if s.DB != 0 {
		t.Errorf("expected default DB 0, got %d", s.DB)
	}
	if s.Mode != ModeNormal {
		t.Errorf("expected ModeNormal, got %v", s.Mode)
	}
	if s.InMulti() {
		t.Error("new session should not be in MULTI")
	}
	if s.IsSubscribed() {
		t.Error("new session should not be subscribed")
	}
}

func TestMultiLifecycle(t *testing.T) {
	s := New("1", "127.0.0.1:5555")

	if err := s.StartMulti(); err != nil {
		t.Fatalf("StartMulti: %v", err)
	}
	if !s.InMulti() {
		t.Error("expected InMulti true after StartMulti")
	}

	if err := s.StartMulti(); err != ErrAlreadyInMulti {
		t.Errorf("expected ErrAlreadyInMulti, got %v", err)
	}

	s.QueueCommand("SET", [][]byte{[]byte("k"), []byte("v")})
	s.QueueCommand("GET", [][]byte{[]byte("k")})
	if len(s.TxQueue) != 2 {
		t.Errorf("expected 2 queued commands, got %d", len(s.TxQueue))
	}

	if err := s.EndMulti(); err != nil {
		t.Fatalf("EndMulti: %v", err)
	}
	if s.InMulti() {
		t.Error("expected InMulti false after EndMulti")
	}
	if len(s.TxQueue) != 0 {
		t.Error("expected queue cleared after EndMulti")
	}

	if err := s.EndMulti(); err != ErrNotInMulti {
		t.Errorf("expected ErrNotInMulti, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	s := New("1", "127.0.0.1:5555")

	s.Watch(0, "k1", 5)
	s.Watch(0, "k1", 7) // duplicate key, should not add a second entry
	s.Watch(1, "k2", 1)

	if len(s.Watched) != 2 {
		t.Errorf("expected 2 watched keys, got %d", len(s.Watched))
	}

	s.ClearWatches()
	if len(s.Watched) != 0 {
		t.Error("expected watches cleared")
	}
}

func TestSubscriptions(t *testing.T) {
	s := New("1", "127.0.0.1:5555")

	s.Subscribe("news")
	if s.Mode != ModeSubscribed {
		t.Errorf("expected ModeSubscribed, got %v", s.Mode)
	}
	if !s.IsSubscribed() {
		t.Error("expected IsSubscribed true")
	}

	s.PSubscribe("news.*")
	s.Unsubscribe("news")
	if !s.IsSubscribed() {
		t.Error("expected still subscribed via pattern")
	}
	if s.Mode != ModeSubscribed {
		t.Error("expected to remain in ModeSubscribed")
	}

	s.PUnsubscribe("news.*")
	if s.IsSubscribed() {
		t.Error("expected no subscriptions left")
	}
	if s.Mode != ModeNormal {
		t.Errorf("expected ModeNormal after last unsubscribe, got %v", s.Mode)
	}
}
