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

// Package history implements HistorySubsystem (spec.md §4.5): three-tier
// opt-in (key, then db, then global) version snapshotting with
// configurable retention, plus the GETAT/GET/LIST/STATS/CLEAR/PRUNE
// query surface. It implements engine/datatype's HistoryRecorder
// interface so a *Recorder can be handed to datatype.New via
// datatype.WithHistory without either package importing the other's
// concrete types.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redlite-io/redlite/engine/glob"
	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// Policy is a retention policy applied after every tracked write.
type Policy string

const (
	PolicyUnlimited Policy = "unlimited"
	PolicyByAge     Policy = "age"
	PolicyByCount   Policy = "count"
)

const (
	scopeKey    = "key"
	scopeDB     = "db"
	scopeGlobal = "global"
	globalRef   = ""
)

// Config is a resolved tracking configuration for a key.
type Config struct {
	Enabled  bool
	Policy   Policy
	MaxAgeMs int64
	MaxCount int64
}

// Entry is one recorded version of a key.
type Entry struct {
	DB           int
	Name         string
	Type         keyregistry.KeyType
	Version      int64
	Op           string
	TimestampMs  int64
	Snapshot     []byte
	WasExpiredAt *int64
}

// Stats summarizes a key's recorded history.
type Stats struct {
	Count   int64
	OldestMs int64
	NewestMs int64
	Bytes   int64
}

// Summary identifies a key with recorded history for LIST.
type Summary struct {
	DB    int
	Name  string
	Count int64
}

// Recorder is the HistorySubsystem entry point: a datatype.HistoryRecorder
// that resolves per-write tracking configuration and applies retention.
type Recorder struct {
	backend storage.Backend
	now     keyregistry.Clock
}

// New builds a Recorder against backend, using clock for snapshot and
// retention timestamps.
func New(backend storage.Backend, clock keyregistry.Clock) *Recorder {
	return &Recorder{backend: backend, now: clock}
}

func keyRef(db int, name string) string {
	return fmt.Sprintf("%d:%s", db, name)
}

// RecordWrite implements datatype.HistoryRecorder. It is a no-op unless
// tracking is enabled for db/name via the key, db, or global tier (in
// that preference order).
func (r *Recorder) RecordWrite(ctx context.Context, db int, name string, keyType keyregistry.KeyType, version int64, op string, snapshot []byte) error {
	cfg, err := r.resolveConfig(ctx, db, name)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}
	ts := r.now()
	_, err = r.backend.Execute(ctx, `
		INSERT INTO key_history (key_ref, db, name, key_type, version_num, op, ts_ms, snapshot_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key_ref, version_num) DO UPDATE SET
			op = excluded.op, ts_ms = excluded.ts_ms, snapshot_blob = excluded.snapshot_blob`,
		keyRef(db, name), db, name, string(keyType), version, op, ts, snapshot)
	if err != nil {
		return engerrors.Wrap(err, "history: record write")
	}
	return r.applyRetention(ctx, keyRef(db, name), cfg)
}

func (r *Recorder) applyRetention(ctx context.Context, ref string, cfg Config) error {
	switch cfg.Policy {
	case PolicyByAge:
		if cfg.MaxAgeMs <= 0 {
			return nil
		}
		cutoff := r.now() - cfg.MaxAgeMs
		_, err := r.backend.Execute(ctx, `DELETE FROM key_history WHERE key_ref = ? AND ts_ms < ?`, ref, cutoff)
		return err
	case PolicyByCount:
		if cfg.MaxCount <= 0 {
			return nil
		}
		_, err := r.backend.Execute(ctx, `
			DELETE FROM key_history WHERE key_ref = ? AND version_num NOT IN (
				SELECT version_num FROM key_history WHERE key_ref = ?
				ORDER BY version_num DESC LIMIT ?
			)`, ref, ref, cfg.MaxCount)
		return err
	default:
		return nil
	}
}

// resolveConfig walks key -> db -> global tiers, returning the first
// row found. Absent at every tier means tracking is disabled.
func (r *Recorder) resolveConfig(ctx context.Context, db int, name string) (Config, error) {
	if cfg, ok, err := r.lookupConfig(ctx, scopeKey, keyRef(db, name)); err != nil {
		return Config{}, err
	} else if ok {
		return cfg, nil
	}
	if cfg, ok, err := r.lookupConfig(ctx, scopeDB, fmt.Sprintf("%d", db)); err != nil {
		return Config{}, err
	} else if ok {
		return cfg, nil
	}
	if cfg, ok, err := r.lookupConfig(ctx, scopeGlobal, globalRef); err != nil {
		return Config{}, err
	} else if ok {
		return cfg, nil
	}
	return Config{Enabled: false}, nil
}

func (r *Recorder) lookupConfig(ctx context.Context, scope, ref string) (Config, bool, error) {
	row := r.backend.QueryRow(ctx, `
		SELECT enabled, policy, max_age_ms, max_count FROM history_config
		WHERE scope = ? AND scope_ref = ?`, scope, ref)
	var cfg Config
	var enabled int
	var policy string
	if err := row.Scan(&enabled, &policy, &cfg.MaxAgeMs, &cfg.MaxCount); err != nil {
		if err == sql.ErrNoRows {
			return Config{}, false, nil
		}
		return Config{}, false, engerrors.Wrap(err, "history: lookup config")
	}
	cfg.Enabled = enabled != 0
	cfg.Policy = Policy(policy)
	return cfg, true, nil
}

// SetKeyConfig enables/configures tracking for a single key.
func (r *Recorder) SetKeyConfig(ctx context.Context, db int, name string, enabled bool, policy Policy, maxAge time.Duration, maxCount int64) error {
	return r.setConfig(ctx, scopeKey, keyRef(db, name), enabled, policy, maxAge, maxCount)
}

// SetDBConfig enables/configures tracking for every key in a database
// that has no key-level override.
func (r *Recorder) SetDBConfig(ctx context.Context, db int, enabled bool, policy Policy, maxAge time.Duration, maxCount int64) error {
	return r.setConfig(ctx, scopeDB, fmt.Sprintf("%d", db), enabled, policy, maxAge, maxCount)
}

// SetGlobalConfig enables/configures tracking for every key that has no
// key- or db-level override.
func (r *Recorder) SetGlobalConfig(ctx context.Context, enabled bool, policy Policy, maxAge time.Duration, maxCount int64) error {
	return r.setConfig(ctx, scopeGlobal, globalRef, enabled, policy, maxAge, maxCount)
}

func (r *Recorder) setConfig(ctx context.Context, scope, ref string, enabled bool, policy Policy, maxAge time.Duration, maxCount int64) error {
	if policy == "" {
		policy = PolicyUnlimited
	}
	enabledInt := 0
	if enabled {
		enabledInt = 1
	}
	_, err := r.backend.Execute(ctx, `
		INSERT INTO history_config (scope, scope_ref, enabled, policy, max_age_ms, max_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (scope, scope_ref) DO UPDATE SET
			enabled = excluded.enabled, policy = excluded.policy,
			max_age_ms = excluded.max_age_ms, max_count = excluded.max_count`,
		scope, ref, enabledInt, string(policy), maxAge.Milliseconds(), maxCount)
	return err
}

// GetAt returns the most recent entry recorded at or before ts (unix ms).
func (r *Recorder) GetAt(ctx context.Context, db int, name string, ts int64) (*Entry, error) {
	row := r.backend.QueryRow(ctx, `
		SELECT db, name, key_type, version_num, op, ts_ms, snapshot_blob
		FROM key_history WHERE key_ref = ? AND ts_ms <= ?
		ORDER BY ts_ms DESC, version_num DESC LIMIT 1`, keyRef(db, name), ts)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, engerrors.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// GetOptions bounds a Get query.
type GetOptions struct {
	Limit int64
	Since int64
	Until int64
}

// Get returns recorded versions of a key, newest first, bounded by opts.
func (r *Recorder) Get(ctx context.Context, db int, name string, opts GetOptions) ([]Entry, error) {
	query := `SELECT db, name, key_type, version_num, op, ts_ms, snapshot_blob FROM key_history WHERE key_ref = ?`
	args := []interface{}{keyRef(db, name)}
	if opts.Since > 0 {
		query += ` AND ts_ms >= ?`
		args = append(args, opts.Since)
	}
	if opts.Until > 0 {
		query += ` AND ts_ms <= ?`
		args = append(args, opts.Until)
	}
	query += ` ORDER BY version_num DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	var entries []Entry
	err := r.backend.QueryRows(ctx, query, args, func(rows *sql.Rows) error {
		e, err := scanRows(rows)
		if err != nil {
			return err
		}
		entries = append(entries, *e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// List returns a summary of every key (matching pattern, a Redis-style
// glob) that has recorded history.
func (r *Recorder) List(ctx context.Context, pattern string) ([]Summary, error) {
	var summaries []Summary
	err := r.backend.QueryRows(ctx, `
		SELECT db, name, COUNT(*) FROM key_history GROUP BY db, name`, nil, func(rows *sql.Rows) error {
		var s Summary
		if err := rows.Scan(&s.DB, &s.Name, &s.Count); err != nil {
			return err
		}
		if pattern == "" || pattern == "*" || glob.Match(pattern, s.Name) {
			summaries = append(summaries, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// Stats summarizes the recorded history for a single key.
func (r *Recorder) Stats(ctx context.Context, db int, name string) (*Stats, error) {
	row := r.backend.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MIN(ts_ms), 0), COALESCE(MAX(ts_ms), 0), COALESCE(SUM(LENGTH(snapshot_blob)), 0)
		FROM key_history WHERE key_ref = ?`, keyRef(db, name))
	var s Stats
	if err := row.Scan(&s.Count, &s.OldestMs, &s.NewestMs, &s.Bytes); err != nil {
		return nil, engerrors.Wrap(err, "history: stats")
	}
	return &s, nil
}

// Clear deletes all recorded history for a key, or only entries older
// than before if before > 0. It returns the number of rows removed.
func (r *Recorder) Clear(ctx context.Context, db int, name string, before int64) (int64, error) {
	ref := keyRef(db, name)
	query := `DELETE FROM key_history WHERE key_ref = ?`
	args := []interface{}{ref}
	if before > 0 {
		query += ` AND ts_ms < ?`
		args = append(args, before)
	}
	res, err := r.backend.Execute(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Prune deletes every recorded entry across all keys older than before.
func (r *Recorder) Prune(ctx context.Context, before int64) (int64, error) {
	res, err := r.backend.Execute(ctx, `DELETE FROM key_history WHERE ts_ms < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var keyType string
	if err := row.Scan(&e.DB, &e.Name, &keyType, &e.Version, &e.Op, &e.TimestampMs, &e.Snapshot); err != nil {
		return nil, err
	}
	e.Type = keyregistry.KeyType(keyType)
	return &e, nil
}

func scanRows(rows *sql.Rows) (*Entry, error) {
	var e Entry
	var keyType string
	if err := rows.Scan(&e.DB, &e.Name, &keyType, &e.Version, &e.Op, &e.TimestampMs, &e.Snapshot); err != nil {
		return nil, err
	}
	e.Type = keyregistry.KeyType(keyType)
	return &e, nil
}
