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

// Package ttl implements TTLSubsystem (spec.md §4.4). Lazy, per-key
// expiry already lives in engine/keyregistry (every lookup deletes a
// key whose deadline has passed); this package adds the other two
// tiers: an explicit VACUUM that sweeps every expired key across all
// logical databases and compacts free pages, and an opt-in background
// sweeper that runs VACUUM on an interval.
//
// The background sweeper is safe to start from more than one session
// at once: MaybeSweep uses a single atomic compare-and-swap on a shared
// "next-due" timestamp so that only one caller in a race wins the
// right to sweep for a given interval.
package ttl

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redlite-io/redlite/engine/keyregistry"
	"github.com/redlite-io/redlite/storage"
)

// Sweeper owns the autovacuum interval and performs both explicit and
// background expired-key reclamation.
type Sweeper struct {
	backend  storage.Backend
	now      keyregistry.Clock
	interval int64 // milliseconds; <=0 disables the background task
	nextDue  atomic.Int64

	done chan struct{}
}

// New builds a Sweeper. interval is the minimum autovacuum period
// (kept at millisecond precision); per spec.md §4.4 it must be at least 1000ms if
// background sweeping is enabled via Start. A non-positive interval
// is accepted but only permits explicit Vacuum calls.
func New(backend storage.Backend, clock keyregistry.Clock, interval time.Duration) *Sweeper {
	s := &Sweeper{
		backend:  backend,
		now:      clock,
		interval: interval.Milliseconds(),
	}
	s.nextDue.Store(clock() + s.interval)
	return s
}

// Vacuum deletes every key (across all logical databases) whose
// expire_at deadline has passed, relying on ON DELETE CASCADE to drop
// the associated type-table rows, then compacts free pages. It
// returns the number of keys reclaimed.
func (s *Sweeper) Vacuum(ctx context.Context) (int64, error) {
	now := s.now()
	res, err := s.backend.Execute(ctx, `DELETE FROM keys WHERE expire_at IS NOT NULL AND expire_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := s.backend.Execute(ctx, `VACUUM`); err != nil {
		return n, err
	}
	return n, nil
}

// MaybeSweep performs Vacuum only if the shared next-due timestamp has
// elapsed, atomically claiming the slot first so that at most one
// caller across concurrent sessions actually sweeps per interval.
// Callers that lose the race return (0, nil) immediately.
func (s *Sweeper) MaybeSweep(ctx context.Context) (int64, error) {
	if s.interval <= 0 {
		return 0, nil
	}
	now := s.now()
	due := s.nextDue.Load()
	if now < due {
		return 0, nil
	}
	if !s.nextDue.CompareAndSwap(due, now+s.interval) {
		return 0, nil
	}
	return s.Vacuum(ctx)
}

// Start launches a background goroutine that calls MaybeSweep on a
// ticker at the configured interval, stopping when ctx is canceled or
// the returned stop func is called. It is a no-op if interval <= 0.
func (s *Sweeper) Start(ctx context.Context) (stop func()) {
	if s.interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	s.done = done
	ticker := time.NewTicker(time.Duration(s.interval) * time.Millisecond)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_, _ = s.MaybeSweep(ctx)
			}
		}
	}()
	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}
