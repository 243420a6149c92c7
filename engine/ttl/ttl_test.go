// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package ttl

import (
	"context"
	"testing"
	"time"

	"github.com/redlite-io/redlite/engine/keyregistry"
	"github.com/redlite-io/redlite/storage"
)

func TestVacuumReclaimsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewSQLiteBackend(storage.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	clockMs := int64(1000)
	clock := func() int64 { return clockMs }
	registry := keyregistry.New(backend, clock)

	if _, err := registry.Ensure(ctx, 0, "live", keyregistry.TypeString); err != nil {
		t.Fatalf("Ensure live: %v", err)
	}
	meta, err := registry.Ensure(ctx, 0, "dying", keyregistry.TypeString)
	if err != nil {
		t.Fatalf("Ensure dying: %v", err)
	}
	if err := registry.ApplyExpire(ctx, meta.ID, clockMs+10); err != nil {
		t.Fatalf("ApplyExpire: %v", err)
	}

	clockMs += 100 // advance past the deadline
	sweeper := New(backend, clock, 0)
	n, err := sweeper.Vacuum(ctx)
	if err != nil {
		t.Fatalf("Vacuum: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 key reclaimed, got %d", n)
	}

	exists, err := registry.Exists(ctx, 0, "live")
	if err != nil {
		t.Fatalf("Exists live: %v", err)
	}
	if !exists {
		t.Fatalf("expected live key to survive Vacuum")
	}
	exists, err = registry.Exists(ctx, 0, "dying")
	if err != nil {
		t.Fatalf("Exists dying: %v", err)
	}
	if exists {
		t.Fatalf("expected dying key to be reclaimed")
	}
}

func TestMaybeSweepRespectsNextDue(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewSQLiteBackend(storage.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	clockMs := int64(1000)
	clock := func() int64 { return clockMs }
	sweeper := New(backend, clock, 1000*time.Millisecond)

	n, err := sweeper.MaybeSweep(ctx)
	if err != nil {
		t.Fatalf("MaybeSweep (too early): %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no sweep before next-due, got %d", n)
	}

	clockMs += 1500
	if _, err := sweeper.MaybeSweep(ctx); err != nil {
		t.Fatalf("MaybeSweep (due): %v", err)
	}
	// A second call at the same timestamp should lose the CAS race
	// against the first and perform no additional work.
	n, err = sweeper.MaybeSweep(ctx)
	if err != nil {
		t.Fatalf("MaybeSweep (second): %v", err)
	}
	if n != 0 {
		t.Fatalf("expected second call to no-op, got %d", n)
	}
}
