// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package keyregistry

import (
	"context"
	"testing"

	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

func newTestRegistry(t *testing.T, clock Clock) *Registry {
	t.Helper()
	backend, err := storage.NewSQLiteBackend(storage.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return New(backend, clock)
}

func TestEnsureCreatesAndReuses(t *testing.T) {
	r := newTestRegistry(t, func() int64 { return 1000 })
	ctx := context.Background()

	meta, err := r.Ensure(ctx, 0, "foo", TypeString)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if meta.Version != 0 || meta.Type != TypeString {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	again, err := r.Ensure(ctx, 0, "foo", TypeString)
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if again.ID != meta.ID {
		t.Fatalf("expected same row, got new id %d vs %d", again.ID, meta.ID)
	}
}

func TestEnsureWrongType(t *testing.T) {
	r := newTestRegistry(t, func() int64 { return 1000 })
	ctx := context.Background()

	if _, err := r.Ensure(ctx, 0, "foo", TypeString); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := r.Ensure(ctx, 0, "foo", TypeList); !engerrors.Is(err, engerrors.ErrWrongType) {
		t.Fatalf("expected WRONGTYPE, got %v", err)
	}
}

func TestGetTypedNotFound(t *testing.T) {
	r := newTestRegistry(t, func() int64 { return 1000 })
	if _, err := r.GetTyped(context.Background(), 0, "missing", TypeString); !engerrors.Is(err, engerrors.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestExpiryIsLazy(t *testing.T) {
	now := int64(1000)
	r := newTestRegistry(t, func() int64 { return now })
	ctx := context.Background()

	meta, err := r.Ensure(ctx, 0, "foo", TypeString)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := r.ApplyExpire(ctx, meta.ID, now+100); err != nil {
		t.Fatalf("ApplyExpire: %v", err)
	}

	ttl, err := r.GetTTLMillis(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("GetTTLMillis: %v", err)
	}
	if ttl != 100 {
		t.Fatalf("expected ttl 100, got %d", ttl)
	}

	now = 2000 // advance past the deadline
	if _, err := r.GetTyped(ctx, 0, "foo", ""); !engerrors.Is(err, engerrors.ErrNotFound) {
		t.Fatalf("expected lazily-expired key to read as NOT_FOUND, got %v", err)
	}
	exists, err := r.Exists(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("expected expired key to no longer exist")
	}
}

func TestBumpVersionAndWatch(t *testing.T) {
	r := newTestRegistry(t, func() int64 { return 1000 })
	ctx := context.Background()

	meta, err := r.Ensure(ctx, 0, "foo", TypeString)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	v0, err := r.GetVersion(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v0 != 0 {
		t.Fatalf("expected version 0, got %d", v0)
	}
	if err := r.BumpVersion(ctx, meta.ID); err != nil {
		t.Fatalf("BumpVersion: %v", err)
	}
	v1, err := r.GetVersion(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v1 != 1 {
		t.Fatalf("expected version 1, got %d", v1)
	}
}

func TestPersistClearsTTL(t *testing.T) {
	now := int64(1000)
	r := newTestRegistry(t, func() int64 { return now })
	ctx := context.Background()

	meta, err := r.Ensure(ctx, 0, "foo", TypeString)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := r.ApplyExpire(ctx, meta.ID, now+1000); err != nil {
		t.Fatalf("ApplyExpire: %v", err)
	}
	had, err := r.Persist(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if !had {
		t.Fatalf("expected Persist to report a TTL was cleared")
	}
	ttl, err := r.GetTTLMillis(ctx, 0, "foo")
	if err != nil {
		t.Fatalf("GetTTLMillis: %v", err)
	}
	if ttl != -1 {
		t.Fatalf("expected ttl -1 after Persist, got %d", ttl)
	}
}

func TestRenameNX(t *testing.T) {
	r := newTestRegistry(t, func() int64 { return 1000 })
	ctx := context.Background()

	if _, err := r.Ensure(ctx, 0, "src", TypeString); err != nil {
		t.Fatalf("Ensure src: %v", err)
	}
	if _, err := r.Ensure(ctx, 0, "dst", TypeString); err != nil {
		t.Fatalf("Ensure dst: %v", err)
	}

	ok, err := r.Rename(ctx, 0, "src", "dst", false)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if ok {
		t.Fatalf("expected RENAMENX to report false when dst exists")
	}

	ok, err = r.Rename(ctx, 0, "src", "dst", true)
	if err != nil {
		t.Fatalf("Rename overwrite: %v", err)
	}
	if !ok {
		t.Fatalf("expected overwrite rename to succeed")
	}
	if _, err := r.GetTyped(ctx, 0, "src", ""); !engerrors.Is(err, engerrors.ErrNotFound) {
		t.Fatalf("expected src gone after rename, got %v", err)
	}
}
