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

// Package storage implements StorageBackend (spec.md §4.1): it opens the
// relational store, applies idempotent schema migrations, and runs
// parameterized statements under a single-writer discipline.
package storage

import (
	"context"
	"database/sql"
)

// Dialect distinguishes SQL surface differences between backends.
type Dialect int

const (
	// DialectSQLite selects modernc.org/sqlite placeholder/DDL conventions.
	DialectSQLite Dialect = iota
	// DialectPostgres selects lib/pq placeholder/DDL conventions.
	DialectPostgres
)

// Backend is the StorageBackend contract every DataTypeOps/KeyRegistry
// caller programs against. All SQL text is written using "?" positional
// placeholders regardless of backend; Rebind translates them for dialects
// that need numbered placeholders.
type Backend interface {
	// Dialect reports which SQL dialect this backend speaks.
	Dialect() Dialect

	// Rebind rewrites "?" placeholders in query for this backend's dialect.
	Rebind(query string) string

	// Execute runs a statement that does not return rows.
	Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// QueryRows runs a statement and invokes fold once per result row. fold
	// must not retain the passed *sql.Rows beyond its call.
	QueryRows(ctx context.Context, query string, args []interface{}, fold func(*sql.Rows) error) error

	// QueryRow runs a statement expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Transaction runs fn with an exclusive writer capability held for its
	// duration (spec.md §4.1, §4.9): at most one Transaction/Execute runs
	// at a time, readers may run concurrently under WAL journaling. If the
	// writer is not acquired within the configured busy-wait deadline,
	// returns pkg/errors.ErrBusy.
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error

	// Ping verifies the backend can still be written to; used by the
	// readiness health check.
	Ping(ctx context.Context) error

	// Close releases all resources held by the backend.
	Close() error
}
