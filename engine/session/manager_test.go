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
	"context"
	"testing"
	"time"
)

func TestManagerRegisterGetRemove(t *testing.T) {
	mgr := NewManager(DefaultConfig())
	defer mgr.Close()

	s := New("1", "127.0.0.1:1")
	if err := mgr.Register(s); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := mgr.Register(s); err != ErrSessionExists {
		t.Errorf("expected ErrSessionExists, got %v", err)
	}

	got, ok := mgr.Get("1")
	if !ok || got != s {
		t.Error("expected to retrieve registered session")
	}

	if mgr.Count() != 1 {
		t.Errorf("expected count 1, got %d", mgr.Count())
	}

	mgr.Remove("1")
	if _, ok := mgr.Get("1"); ok {
		t.Error("expected session removed")
	}

	if _, err := mgr.Lookup("1"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerNextClientID(t *testing.T) {
	mgr := NewManager(DefaultConfig())
	defer mgr.Close()

	a := mgr.NextClientID()
	b := mgr.NextClientID()
	if b != a+1 {
		t.Errorf("expected monotonically increasing ids, got %d then %d", a, b)
	}
}

func TestManagerList(t *testing.T) {
	mgr := NewManager(DefaultConfig())
	defer mgr.Close()

	mgr.Register(New("1", "a"))
	mgr.Register(New("2", "b"))

	if len(mgr.List()) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(mgr.List()))
	}
}

func TestManagerCleanupIdle(t *testing.T) {
	mgr := NewManager(&Config{IdleTimeout: time.Millisecond, CleanupInterval: 0})
	defer mgr.Close()

	s := New("1", "a")
	s.LastActivity = time.Now().Add(-time.Hour)
	mgr.Register(s)

	evicted := mgr.Cleanup(context.Background())
	if len(evicted) != 1 || evicted[0] != "1" {
		t.Errorf("expected session 1 evicted, got %v", evicted)
	}
	if mgr.Count() != 0 {
		t.Error("expected session removed after cleanup")
	}
}

func TestManagerCleanupDisabled(t *testing.T) {
	mgr := NewManager(DefaultConfig())
	defer mgr.Close()

	s := New("1", "a")
	s.LastActivity = time.Now().Add(-time.Hour)
	mgr.Register(s)

	if evicted := mgr.Cleanup(context.Background()); evicted != nil {
		t.Errorf("expected no eviction with zero idle timeout, got %v", evicted)
	}
}
