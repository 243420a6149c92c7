// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package datatype

import (
	"bytes"
	"context"
	"testing"
)

func TestListLIFOandFIFO(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.RPush(ctx, 0, "q", [][]byte{[]byte("a"), []byte("b"), []byte("c")}); err != nil {
		t.Fatalf("RPush: %v", err)
	}
	vals, err := ops.LRange(ctx, 0, "q", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, v := range vals {
		if string(v) != want[i] {
			t.Fatalf("RPush order: expected %v, got %v", want, vals)
		}
	}

	popped, err := ops.LPop(ctx, 0, "q", 1)
	if err != nil {
		t.Fatalf("LPop: %v", err)
	}
	if string(popped[0]) != "a" {
		t.Fatalf("expected FIFO pop of 'a', got %q", popped[0])
	}

	if _, err := ops.LPush(ctx, 0, "stack", [][]byte{[]byte("x"), []byte("y"), []byte("z")}); err != nil {
		t.Fatalf("LPush: %v", err)
	}
	popped, err = ops.LPop(ctx, 0, "stack", 1)
	if err != nil {
		t.Fatalf("LPop: %v", err)
	}
	if string(popped[0]) != "z" {
		t.Fatalf("expected LIFO pop of 'z', got %q", popped[0])
	}
}

func TestListInsertTriggersRebalance(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	// Force positions so close together (gap of 1) that the very next
	// LInsert must rebalance before it can find room.
	meta, err := ops.registry.Ensure(ctx, 0, "tight", "list")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := ops.backend.Execute(ctx, `INSERT INTO lists (key_id, position, value) VALUES (?, 0, ?)`, meta.ID, []byte("a")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ops.backend.Execute(ctx, `INSERT INTO lists (key_id, position, value) VALUES (?, 1, ?)`, meta.ID, []byte("b")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := ops.LInsert(ctx, 0, "tight", false, []byte("a"), []byte("mid"))
	if err != nil {
		t.Fatalf("LInsert: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected length 3 after insert, got %d", n)
	}
	vals, err := ops.LRange(ctx, 0, "tight", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	want := []string{"a", "mid", "b"}
	for i, v := range vals {
		if string(v) != want[i] {
			t.Fatalf("expected order %v after rebalanced insert, got %v", want, vals)
		}
	}
}

func TestLRemHeadToTail(t *testing.T) {
	ops := newTestOps(t)
	ctx := context.Background()

	if _, err := ops.RPush(ctx, 0, "l", [][]byte{[]byte("x"), []byte("y"), []byte("x"), []byte("x")}); err != nil {
		t.Fatalf("RPush: %v", err)
	}
	removed, err := ops.LRem(ctx, 0, "l", 1, []byte("x"))
	if err != nil {
		t.Fatalf("LRem: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	vals, err := ops.LRange(ctx, 0, "l", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	if len(vals) != 3 || !bytes.Equal(vals[0], []byte("y")) {
		t.Fatalf("expected head-to-tail removal to drop the first x, got %v", vals)
	}
}
