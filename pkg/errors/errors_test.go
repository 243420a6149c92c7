// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package errors

import (
	"errors"
	"testing"
)

func TestErrorIs(t *testing.T) {
	wrapped := ErrWrongType.WithDetail("key", "foo")
	if !errors.Is(wrapped, ErrWrongType) {
		t.Fatal("expected wrapped error to match ErrWrongType by code")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatal("did not expect wrapped error to match ErrNotFound")
	}
}

func TestErrorAs(t *testing.T) {
	var target *Error
	if !errors.As(ErrBusy, &target) {
		t.Fatal("expected ErrBusy to assign to *Error")
	}
	if target.Code != "BUSY" {
		t.Fatalf("got code %q, want BUSY", target.Code)
	}
}

func TestWithDetailImmutable(t *testing.T) {
	base := ErrOutOfRange
	derived := base.WithDetail("index", 5)

	if base.Details != nil {
		t.Fatal("expected base error to remain untouched")
	}
	if derived.Details["index"] != 5 {
		t.Fatalf("expected derived detail index=5, got %v", derived.Details["index"])
	}
}

func TestTag(t *testing.T) {
	if got := Tag(ErrSyntax); got != "SYNTAX" {
		t.Fatalf("got tag %q, want SYNTAX", got)
	}
	if got := Tag(errors.New("boom")); got != "ERR" {
		t.Fatalf("got tag %q, want ERR for a plain error", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrBusy) {
		t.Fatal("expected ErrBusy to be retryable")
	}
	if IsRetryable(ErrStorage) {
		t.Fatal("did not expect ErrStorage to be retryable")
	}
}

func TestWrapPreservesEngineError(t *testing.T) {
	wrapped := Wrap(ErrWrongType, "during HSET")
	var target *Error
	if !errors.As(wrapped, &target) {
		t.Fatal("expected wrapped error to remain an *Error")
	}
	if target.Code != "WRONGTYPE" {
		t.Fatalf("got code %q, want WRONGTYPE", target.Code)
	}
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(errors.New("disk full"), "writing snapshot")
	var target *Error
	if !errors.As(wrapped, &target) {
		t.Fatal("expected wrapped error to become an *Error")
	}
	if target.Category != CategoryInternal {
		t.Fatalf("got category %q, want internal", target.Category)
	}
}
