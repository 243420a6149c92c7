// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package datatype

import (
	"bytes"
	"context"
	"testing"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

func newTestOps(t *testing.T) *Ops {
	t.Helper()
	backend, err := storage.NewSQLiteBackend(storage.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	registry := keyregistry.New(backend, func() int64 { return 1000 })
	return New(backend, registry)
}

func TestSetAndGet(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.Set(ctx, 0, "k", []byte("v1"), SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := ops.Get(ctx, 0, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("expected v1, got %q", v)
	}
}

func TestSetNXGuard(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.Set(ctx, 0, "k", []byte("v1"), SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err := ops.Set(ctx, 0, "k", []byte("v2"), SetOptions{NX: true})
	if err != nil {
		t.Fatalf("Set NX: %v", err)
	}
	if ok {
		t.Fatalf("expected NX guard to block overwrite")
	}
	v, err := ops.Get(ctx, 0, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("expected v1 to survive NX-guarded SET, got %q", v)
	}
}

func TestWrongType(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.LPush(ctx, 0, "k", [][]byte{[]byte("a")}); err != nil {
		t.Fatalf("LPush: %v", err)
	}
	if _, err := ops.Get(ctx, 0, "k"); !engerrors.Is(err, engerrors.ErrWrongType) {
		t.Fatalf("expected WRONGTYPE, got %v", err)
	}
}

func TestIncrBy(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	n, err := ops.IncrBy(ctx, 0, "counter", 5)
	if err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
	n, err = ops.IncrBy(ctx, 0, "counter", -2)
	if err != nil {
		t.Fatalf("IncrBy: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestIncrByNotInteger(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.Set(ctx, 0, "k", []byte("not-a-number"), SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := ops.IncrBy(ctx, 0, "k", 1); !engerrors.Is(err, engerrors.ErrNotInteger) {
		t.Fatalf("expected NOT_INTEGER, got %v", err)
	}
}

func TestAppendAndStrLen(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	n, err := ops.Append(ctx, 0, "k", []byte("hello"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected length 5, got %d", n)
	}
	n, err = ops.Append(ctx, 0, "k", []byte(" world"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 11 {
		t.Fatalf("expected length 11, got %d", n)
	}
	l, err := ops.StrLen(ctx, 0, "k")
	if err != nil {
		t.Fatalf("StrLen: %v", err)
	}
	if l != 11 {
		t.Fatalf("expected StrLen 11, got %d", l)
	}
}
