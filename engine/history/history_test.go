// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package history

import (
	"context"
	"testing"

	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/keyregistry"
	"github.com/redlite-io/redlite/storage"
)

func newTestRig(t *testing.T) (*datatype.Ops, *Recorder, func() int64) {
	t.Helper()
	backend, err := storage.NewSQLiteBackend(storage.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	clockMs := int64(1000)
	clock := func() int64 { return clockMs }
	registry := keyregistry.New(backend, clock)
	recorder := New(backend, clock)
	ops := datatype.New(backend, registry, datatype.WithHistory(recorder), datatype.WithClock(clock))
	return ops, recorder, func() int64 { return clockMs }
}

func TestHistoryDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	ops, recorder, _ := newTestRig(t)

	if _, err := ops.Set(ctx, 0, "k", []byte("v1"), datatype.SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	entries, err := recorder.Get(ctx, 0, "k", GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no history when untracked, got %d entries", len(entries))
	}
}

func TestHistoryKeyScopeRecordsVersions(t *testing.T) {
	ctx := context.Background()
	ops, recorder, _ := newTestRig(t)

	if err := recorder.SetKeyConfig(ctx, 0, "k", true, PolicyUnlimited, 0, 0); err != nil {
		t.Fatalf("SetKeyConfig: %v", err)
	}
	if _, err := ops.Set(ctx, 0, "k", []byte("v1"), datatype.SetOptions{}); err != nil {
		t.Fatalf("Set v1: %v", err)
	}
	if _, err := ops.Set(ctx, 0, "k", []byte("v2"), datatype.SetOptions{}); err != nil {
		t.Fatalf("Set v2: %v", err)
	}

	entries, err := recorder.Get(ctx, 0, "k", GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 recorded versions, got %d", len(entries))
	}
	if string(entries[0].Snapshot) != "v2" {
		t.Fatalf("expected newest-first order with v2 on top, got %q", entries[0].Snapshot)
	}

	at, err := recorder.GetAt(ctx, 0, "k", 1000)
	if err != nil {
		t.Fatalf("GetAt: %v", err)
	}
	if string(at.Snapshot) != "v2" {
		t.Fatalf("expected GetAt(1000) to return the newest version at that timestamp (v2), got %q", at.Snapshot)
	}
}

func TestHistoryCountRetention(t *testing.T) {
	ctx := context.Background()
	ops, recorder, _ := newTestRig(t)

	if err := recorder.SetKeyConfig(ctx, 0, "k", true, PolicyByCount, 0, 2); err != nil {
		t.Fatalf("SetKeyConfig: %v", err)
	}
	for _, v := range []string{"a", "b", "c"} {
		if _, err := ops.Set(ctx, 0, "k", []byte(v), datatype.SetOptions{}); err != nil {
			t.Fatalf("Set %s: %v", v, err)
		}
	}
	entries, err := recorder.Get(ctx, 0, "k", GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected retention to cap at 2 entries, got %d", len(entries))
	}
	if string(entries[0].Snapshot) != "c" || string(entries[1].Snapshot) != "b" {
		t.Fatalf("expected the two newest versions to survive, got %q, %q", entries[0].Snapshot, entries[1].Snapshot)
	}
}

func TestHistoryGlobalScopeFallback(t *testing.T) {
	ctx := context.Background()
	ops, recorder, _ := newTestRig(t)

	if err := recorder.SetGlobalConfig(ctx, true, PolicyUnlimited, 0, 0); err != nil {
		t.Fatalf("SetGlobalConfig: %v", err)
	}
	if _, err := ops.Set(ctx, 0, "any", []byte("v1"), datatype.SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	entries, err := recorder.Get(ctx, 0, "any", GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected global opt-in to record history, got %d entries", len(entries))
	}
}
