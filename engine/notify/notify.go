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

// Package notify implements NotificationBus (spec.md §4.7): process-local
// key wake-up channels for blocking reads (BLPOP/BRPOP/XREAD BLOCK) and
// pub/sub channel/pattern fan-out for PUBLISH/SUBSCRIBE/PSUBSCRIBE. Both
// registries are single-producer/multi-consumer broadcast primitives with
// a bounded backlog: a subscriber slow enough to fill its backlog loses
// messages rather than stalling the publisher (spec.md's stated at-most-once
// contract).
//
// In embedded (library) mode, a Bus built with New(true) rejects every
// blocking/subscribe call with engerrors.ErrUnsupportedInEmbedded.
package notify

import (
	"strconv"
	"sync"

	"github.com/redlite-io/redlite/engine/glob"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

// pubsubBacklog is the bounded channel depth for pub/sub message delivery;
// a subscriber that falls this far behind starts losing messages.
const pubsubBacklog = 64

// Message is delivered to a channel/pattern subscriber.
type Message struct {
	Channel string
	Pattern string // empty for a direct SUBSCRIBE match
	Payload []byte
}

// Bus is the process-wide NotificationBus instance, normally owned by
// engine/supervisor and shared by every session.
type Bus struct {
	embedded bool

	mu   sync.Mutex
	keys map[string]*keyEntry

	subMu    sync.RWMutex
	channels map[string]map[int]chan Message
	patterns map[string]map[int]chan Message
	nextSub  int
}

// New builds a Bus. embedded selects library mode, in which every
// blocking/subscribe method fails fast with ErrUnsupportedInEmbedded.
func New(embedded bool) *Bus {
	return &Bus{
		embedded: embedded,
		keys:     make(map[string]*keyEntry),
		channels: make(map[string]map[int]chan Message),
		patterns: make(map[string]map[int]chan Message),
	}
}

func keyRef(db int, name string) string {
	return strconv.Itoa(db) + ":" + name
}

// keyEntry is the lazily-created, refcounted wake-channel set for one key.
type keyEntry struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// NotifyKey implements datatype.Notifier: it wakes every current waiter on
// db/name without blocking. A no-op if nobody is waiting, matching the
// "channel is created lazily on first subscription" rule.
func (b *Bus) NotifyKey(db int, name string) {
	b.mu.Lock()
	entry, ok := b.keys[keyRef(db, name)]
	b.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	for _, ch := range entry.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	entry.mu.Unlock()
}

// SubscribeKey registers a waiter for db/name's next write and returns a
// channel that receives a token per NotifyKey call (bounded backlog: a
// waiter that never drains only ever sees "something changed", never a
// count) and a cancel func that must be called to release it. In
// embedded mode it returns a closed channel, a no-op cancel, and
// ErrUnsupportedInEmbedded.
func (b *Bus) SubscribeKey(db int, name string) (<-chan struct{}, func(), error) {
	if b.embedded {
		closed := make(chan struct{})
		close(closed)
		return closed, func() {}, engerrors.ErrUnsupportedInEmbedded
	}

	ref := keyRef(db, name)
	b.mu.Lock()
	entry, ok := b.keys[ref]
	if !ok {
		entry = &keyEntry{subs: make(map[int]chan struct{})}
		b.keys[ref] = entry
	}
	b.mu.Unlock()

	entry.mu.Lock()
	id := entry.next
	entry.next++
	ch := make(chan struct{}, 1)
	entry.subs[id] = ch
	entry.mu.Unlock()

	cancel := func() {
		entry.mu.Lock()
		delete(entry.subs, id)
		empty := len(entry.subs) == 0
		entry.mu.Unlock()
		if empty {
			b.mu.Lock()
			if cur, ok := b.keys[ref]; ok && cur == entry {
				cur.mu.Lock()
				stillEmpty := len(cur.subs) == 0
				cur.mu.Unlock()
				if stillEmpty {
					delete(b.keys, ref)
				}
			}
			b.mu.Unlock()
		}
	}
	return ch, cancel, nil
}

// Publish delivers payload to every direct subscriber of channel and every
// pattern subscriber whose pattern matches it, returning the number of
// subscribers reached at emission time (not necessarily delivered, since
// a full backlog silently drops the message). Fails with
// ErrUnsupportedInEmbedded in library mode.
func (b *Bus) Publish(channel string, payload []byte) (int, error) {
	if b.embedded {
		return 0, engerrors.ErrUnsupportedInEmbedded
	}
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	reached := 0
	for _, ch := range b.channels[channel] {
		msg := Message{Channel: channel, Payload: payload}
		select {
		case ch <- msg:
		default:
		}
		reached++
	}
	for pattern, subs := range b.patterns {
		if !glob.Match(pattern, channel) {
			continue
		}
		for _, ch := range subs {
			msg := Message{Channel: channel, Pattern: pattern, Payload: payload}
			select {
			case ch <- msg:
			default:
			}
			reached++
		}
	}
	return reached, nil
}

// Subscription is a live SUBSCRIBE/PSUBSCRIBE registration.
type Subscription struct {
	messages chan Message
	close    func()
}

// Messages returns the subscription's delivery channel.
func (s *Subscription) Messages() <-chan Message { return s.messages }

// Close unregisters the subscription, freeing it from the bus's registry.
func (s *Subscription) Close() { s.close() }

// Subscribe registers a direct-channel subscription. Fails with
// ErrUnsupportedInEmbedded in library mode.
func (b *Bus) Subscribe(channel string) (*Subscription, error) {
	return b.subscribe(b.channels, channel)
}

// PSubscribe registers a glob-pattern subscription matched against every
// Publish'd channel name. Fails with ErrUnsupportedInEmbedded in library
// mode.
func (b *Bus) PSubscribe(pattern string) (*Subscription, error) {
	return b.subscribe(b.patterns, pattern)
}

func (b *Bus) subscribe(registry map[string]map[int]chan Message, key string) (*Subscription, error) {
	if b.embedded {
		return nil, engerrors.ErrUnsupportedInEmbedded
	}
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	if registry[key] == nil {
		registry[key] = make(map[int]chan Message)
	}
	ch := make(chan Message, pubsubBacklog)
	registry[key][id] = ch
	b.subMu.Unlock()

	return &Subscription{
		messages: ch,
		close: func() {
			b.subMu.Lock()
			delete(registry[key], id)
			if len(registry[key]) == 0 {
				delete(registry, key)
			}
			b.subMu.Unlock()
		},
	}, nil
}

// Stats reports a coarse snapshot of active registrations, used by the
// admin surface (spec.md §4.10).
type Stats struct {
	KeyWaiters  int
	Channels    int
	PatternSubs int
}

// Snapshot returns the current registry sizes.
func (b *Bus) Snapshot() Stats {
	b.mu.Lock()
	keyWaiters := len(b.keys)
	b.mu.Unlock()

	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return Stats{
		KeyWaiters:  keyWaiters,
		Channels:    len(b.channels),
		PatternSubs: len(b.patterns),
	}
}
