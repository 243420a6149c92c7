// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package notify

import (
	"testing"
	"time"

	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

func TestKeyWakeDeliversToWaiter(t *testing.T) {
	bus := New(false)
	ch, cancel, err := bus.SubscribeKey(0, "q")
	if err != nil {
		t.Fatalf("SubscribeKey: %v", err)
	}
	defer cancel()

	bus.NotifyKey(0, "q")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected wake token, got none")
	}
}

func TestNotifyKeyWithoutWaiterIsNoop(t *testing.T) {
	bus := New(false)
	bus.NotifyKey(0, "nobody-waiting") // must not panic or block
}

func TestPublishReachesDirectAndPatternSubscribers(t *testing.T) {
	bus := New(false)
	direct, err := bus.Subscribe("news")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer direct.Close()
	pattern, err := bus.PSubscribe("ne*")
	if err != nil {
		t.Fatalf("PSubscribe: %v", err)
	}
	defer pattern.Close()

	n, err := bus.Publish("news", []byte("hello"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 subscribers reached, got %d", n)
	}

	select {
	case msg := <-direct.Messages():
		if string(msg.Payload) != "hello" {
			t.Fatalf("unexpected payload %q", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("direct subscriber received nothing")
	}
	select {
	case msg := <-pattern.Messages():
		if msg.Pattern != "ne*" {
			t.Fatalf("expected pattern match recorded, got %q", msg.Pattern)
		}
	case <-time.After(time.Second):
		t.Fatal("pattern subscriber received nothing")
	}
}

func TestEmbeddedModeRejectsBlockingAndPubSub(t *testing.T) {
	bus := New(true)

	if _, _, err := bus.SubscribeKey(0, "q"); !engerrors.Is(err, engerrors.ErrUnsupportedInEmbedded) {
		t.Fatalf("expected ErrUnsupportedInEmbedded from SubscribeKey, got %v", err)
	}
	if _, err := bus.Subscribe("c"); !engerrors.Is(err, engerrors.ErrUnsupportedInEmbedded) {
		t.Fatalf("expected ErrUnsupportedInEmbedded from Subscribe, got %v", err)
	}
	if _, err := bus.Publish("c", []byte("x")); !engerrors.Is(err, engerrors.ErrUnsupportedInEmbedded) {
		t.Fatalf("expected ErrUnsupportedInEmbedded from Publish, got %v", err)
	}
}

func TestCancelSubscribeKeyUnregisters(t *testing.T) {
	bus := New(false)
	_, cancel, err := bus.SubscribeKey(0, "q")
	if err != nil {
		t.Fatalf("SubscribeKey: %v", err)
	}
	cancel()
	if got := bus.Snapshot().KeyWaiters; got != 0 {
		t.Fatalf("expected key waiter entry to be GC'd after cancel, got %d", got)
	}
}
