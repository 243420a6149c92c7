// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package auth

import "testing"

func TestGateDisabledWithoutPassword(t *testing.T) {
	g, err := NewGate("")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if g.Required() {
		t.Fatal("expected auth disabled for empty password")
	}
	if !g.Check("anything") {
		t.Fatal("expected disabled gate to accept any password")
	}
}

func TestGateChecksPassword(t *testing.T) {
	g, err := NewGate("s3cret")
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if !g.Required() {
		t.Fatal("expected auth required once a password is configured")
	}
	if !g.Check("s3cret") {
		t.Fatal("expected correct password to pass")
	}
	if g.Check("wrong") {
		t.Fatal("expected incorrect password to fail")
	}
}
