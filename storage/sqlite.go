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

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/redlite-io/redlite/core/resilience"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

// SQLiteBackend implements Backend over modernc.org/sqlite with WAL
// journaling and a single-writer admission gate (spec.md §4.1).
type SQLiteBackend struct {
	db     *sql.DB
	writer *resilience.Bulkhead
}

// SQLiteConfig configures a SQLiteBackend.
type SQLiteConfig struct {
	// Path is the database file; ":memory:" opens an in-process database.
	Path string

	// CacheMB is the page-cache tuning knob (spec.md §4.1).
	CacheMB int

	// BusyTimeout bounds how long Execute/Transaction wait for the writer
	// capability before failing with pkg/errors.ErrBusy.
	BusyTimeout time.Duration
}

// NewSQLiteBackend opens (creating if absent) a SQLite-backed store and
// applies the normative schema (spec.md §6).
func NewSQLiteBackend(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CacheMB <= 0 {
		cfg.CacheMB = 64
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, engerrors.Wrap(err, "open sqlite database")
	}

	// In-memory databases are per-connection in modernc.org/sqlite unless
	// a single connection is shared; a single connection also sidesteps
	// any need for cross-connection visibility during migration.
	if cfg.Path == ":memory:" || strings.Contains(cfg.Path, "mode=memory") {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
		fmt.Sprintf("PRAGMA cache_size=-%d", cfg.CacheMB*1024),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, engerrors.Wrap(err, "apply pragma: "+p)
		}
	}

	b := &SQLiteBackend{
		db: db,
		writer: resilience.NewBulkhead(&resilience.BulkheadConfig{
			MaxConcurrent: 1,
			Timeout:       cfg.BusyTimeout,
		}),
	}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// migrate applies every "create if missing" statement and records the
// schema version via PRAGMA user_version (spec.md §6).
func (b *SQLiteBackend) migrate() error {
	for _, stmt := range sqliteSchema() {
		if _, err := b.db.Exec(stmt); err != nil {
			return engerrors.Wrap(err, "apply schema: "+stmt)
		}
	}

	var current int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return engerrors.Wrap(err, "read schema version")
	}
	if current < SchemaVersion {
		if _, err := b.db.Exec(fmt.Sprintf("PRAGMA user_version=%d", SchemaVersion)); err != nil {
			return engerrors.Wrap(err, "set schema version")
		}
	}
	return nil
}

func (b *SQLiteBackend) Dialect() Dialect { return DialectSQLite }

func (b *SQLiteBackend) Rebind(query string) string { return query }

func (b *SQLiteBackend) Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	err := b.acquireWriter(ctx, func() error {
		var execErr error
		res, execErr = b.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, translateSQLiteErr(err)
	}
	return res, nil
}

func (b *SQLiteBackend) QueryRows(ctx context.Context, query string, args []interface{}, fold func(*sql.Rows) error) error {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return translateSQLiteErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fold(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (b *SQLiteBackend) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.db.QueryRowContext(ctx, query, args...)
}

func (b *SQLiteBackend) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return b.acquireWriter(ctx, func() error {
		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return translateSQLiteErr(err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return translateSQLiteErr(err)
		}
		return nil
	})
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// acquireWriter serializes access to the single-writer capability,
// translating a bulkhead-full timeout into the retryable BUSY error
// (spec.md §4.1).
func (b *SQLiteBackend) acquireWriter(ctx context.Context, fn func() error) error {
	var opErr error
	err := b.writer.Execute(ctx, func(ctx context.Context) error {
		opErr = fn()
		return opErr
	})
	if err == resilience.ErrBulkheadFull {
		return engerrors.ErrBusy
	}
	if err != nil && opErr == nil {
		return err
	}
	return opErr
}

func translateSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "busy") || strings.Contains(msg, "locked") {
		return engerrors.ErrBusy
	}
	return engerrors.Wrap(err, "storage error")
}
