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

// SchemaVersion is the current schema generation. Migrations are
// idempotent "create if missing" (spec.md §6), so this is advisory
// bookkeeping rather than a stepped-migration ladder.
const SchemaVersion = 1

// sqliteSchema holds the normative tables (spec.md §6) in SQLite DDL.
// Every statement is safe to re-run against an already-migrated database.
func sqliteSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			db INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			expire_at INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 0,
			UNIQUE (db, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_keys_expire_at ON keys(expire_at)`,
		`CREATE TABLE IF NOT EXISTS strings (
			key_id INTEGER PRIMARY KEY REFERENCES keys(id) ON DELETE CASCADE,
			value BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hashes (
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (key_id, field)
		)`,
		`CREATE TABLE IF NOT EXISTS lists (
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			value BLOB NOT NULL,
			UNIQUE (key_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lists_key_position ON lists(key_id, position)`,
		`CREATE TABLE IF NOT EXISTS sets (
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			member BLOB NOT NULL,
			PRIMARY KEY (key_id, member)
		)`,
		`CREATE TABLE IF NOT EXISTS zsets (
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			member BLOB NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (key_id, member)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zsets_score ON zsets(key_id, score, member)`,
		`CREATE TABLE IF NOT EXISTS streams (
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			entry_ms INTEGER NOT NULL,
			entry_seq INTEGER NOT NULL,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (key_id, entry_ms, entry_seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_streams_key_id_order ON streams(key_id, entry_ms, entry_seq)`,
		`CREATE TABLE IF NOT EXISTS stream_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_id INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			last_delivered_ms INTEGER NOT NULL DEFAULT 0,
			last_delivered_seq INTEGER NOT NULL DEFAULT 0,
			UNIQUE (key_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS stream_consumers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id INTEGER NOT NULL REFERENCES stream_groups(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			last_seen_ms INTEGER NOT NULL DEFAULT 0,
			pending_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE (group_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS stream_pending (
			group_id INTEGER NOT NULL REFERENCES stream_groups(id) ON DELETE CASCADE,
			entry_ms INTEGER NOT NULL,
			entry_seq INTEGER NOT NULL,
			consumer_id INTEGER NOT NULL REFERENCES stream_consumers(id) ON DELETE CASCADE,
			delivery_count INTEGER NOT NULL DEFAULT 1,
			last_delivery_ms INTEGER NOT NULL,
			PRIMARY KEY (group_id, entry_ms, entry_seq)
		)`,
		`CREATE TABLE IF NOT EXISTS history_config (
			scope TEXT NOT NULL,
			scope_ref TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 0,
			policy TEXT NOT NULL DEFAULT 'unlimited',
			max_age_ms INTEGER NOT NULL DEFAULT 0,
			max_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (scope, scope_ref)
		)`,
		`CREATE TABLE IF NOT EXISTS key_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_ref TEXT NOT NULL,
			db INTEGER NOT NULL,
			name TEXT NOT NULL,
			key_type TEXT NOT NULL,
			version_num INTEGER NOT NULL,
			op TEXT NOT NULL,
			ts_ms INTEGER NOT NULL,
			snapshot_blob BLOB,
			expire_at INTEGER,
			UNIQUE (key_ref, version_num)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_key_history_key_ts ON key_history(key_ref, ts_ms DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_key_history_db_name_ts ON key_history(db, name, ts_ms DESC)`,
		`CREATE TABLE IF NOT EXISTS ft_indexes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			on_type TEXT NOT NULL,
			prefixes TEXT NOT NULL,
			schema_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ft_aliases (
			alias TEXT PRIMARY KEY,
			index_id INTEGER NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS ft_synonyms (
			index_id INTEGER NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE,
			group_id TEXT NOT NULL,
			term TEXT NOT NULL,
			PRIMARY KEY (index_id, group_id, term)
		)`,
		`CREATE TABLE IF NOT EXISTS ft_suggestions (
			dict_key TEXT NOT NULL,
			string TEXT NOT NULL,
			score REAL NOT NULL,
			payload BLOB,
			PRIMARY KEY (dict_key, string)
		)`,
		`CREATE TABLE IF NOT EXISTS ft_documents (
			index_id INTEGER NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE,
			key_name TEXT NOT NULL,
			field TEXT NOT NULL,
			text_value TEXT,
			numeric_value REAL,
			PRIMARY KEY (index_id, key_name, field)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ft_documents_lookup ON ft_documents(index_id, key_name)`,
	}
}

// postgresSchema mirrors sqliteSchema with Postgres-native identity/serial
// types; the two are kept structurally parallel table-for-table.
func postgresSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS keys (
			id BIGSERIAL PRIMARY KEY,
			db INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			expire_at BIGINT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			version BIGINT NOT NULL DEFAULT 0,
			UNIQUE (db, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_keys_expire_at ON keys(expire_at)`,
		`CREATE TABLE IF NOT EXISTS strings (
			key_id BIGINT PRIMARY KEY REFERENCES keys(id) ON DELETE CASCADE,
			value BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hashes (
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			value BYTEA NOT NULL,
			PRIMARY KEY (key_id, field)
		)`,
		`CREATE TABLE IF NOT EXISTS lists (
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			position BIGINT NOT NULL,
			value BYTEA NOT NULL,
			UNIQUE (key_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lists_key_position ON lists(key_id, position)`,
		`CREATE TABLE IF NOT EXISTS sets (
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			member BYTEA NOT NULL,
			PRIMARY KEY (key_id, member)
		)`,
		`CREATE TABLE IF NOT EXISTS zsets (
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			member BYTEA NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (key_id, member)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zsets_score ON zsets(key_id, score, member)`,
		`CREATE TABLE IF NOT EXISTS streams (
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			entry_ms BIGINT NOT NULL,
			entry_seq BIGINT NOT NULL,
			payload BYTEA NOT NULL,
			created_at BIGINT NOT NULL,
			UNIQUE (key_id, entry_ms, entry_seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_streams_key_id_order ON streams(key_id, entry_ms, entry_seq)`,
		`CREATE TABLE IF NOT EXISTS stream_groups (
			id BIGSERIAL PRIMARY KEY,
			key_id BIGINT NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			last_delivered_ms BIGINT NOT NULL DEFAULT 0,
			last_delivered_seq BIGINT NOT NULL DEFAULT 0,
			UNIQUE (key_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS stream_consumers (
			id BIGSERIAL PRIMARY KEY,
			group_id BIGINT NOT NULL REFERENCES stream_groups(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			last_seen_ms BIGINT NOT NULL DEFAULT 0,
			pending_count BIGINT NOT NULL DEFAULT 0,
			UNIQUE (group_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS stream_pending (
			group_id BIGINT NOT NULL REFERENCES stream_groups(id) ON DELETE CASCADE,
			entry_ms BIGINT NOT NULL,
			entry_seq BIGINT NOT NULL,
			consumer_id BIGINT NOT NULL REFERENCES stream_consumers(id) ON DELETE CASCADE,
			delivery_count BIGINT NOT NULL DEFAULT 1,
			last_delivery_ms BIGINT NOT NULL,
			PRIMARY KEY (group_id, entry_ms, entry_seq)
		)`,
		`CREATE TABLE IF NOT EXISTS history_config (
			scope TEXT NOT NULL,
			scope_ref TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 0,
			policy TEXT NOT NULL DEFAULT 'unlimited',
			max_age_ms BIGINT NOT NULL DEFAULT 0,
			max_count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (scope, scope_ref)
		)`,
		`CREATE TABLE IF NOT EXISTS key_history (
			id BIGSERIAL PRIMARY KEY,
			key_ref TEXT NOT NULL,
			db INTEGER NOT NULL,
			name TEXT NOT NULL,
			key_type TEXT NOT NULL,
			version_num BIGINT NOT NULL,
			op TEXT NOT NULL,
			ts_ms BIGINT NOT NULL,
			snapshot_blob BYTEA,
			expire_at BIGINT,
			UNIQUE (key_ref, version_num)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_key_history_key_ts ON key_history(key_ref, ts_ms DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_key_history_db_name_ts ON key_history(db, name, ts_ms DESC)`,
		`CREATE TABLE IF NOT EXISTS ft_indexes (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			on_type TEXT NOT NULL,
			prefixes TEXT NOT NULL,
			schema_json TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ft_aliases (
			alias TEXT PRIMARY KEY,
			index_id BIGINT NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS ft_synonyms (
			index_id BIGINT NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE,
			group_id TEXT NOT NULL,
			term TEXT NOT NULL,
			PRIMARY KEY (index_id, group_id, term)
		)`,
		`CREATE TABLE IF NOT EXISTS ft_suggestions (
			dict_key TEXT NOT NULL,
			string TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			payload BYTEA,
			PRIMARY KEY (dict_key, string)
		)`,
		`CREATE TABLE IF NOT EXISTS ft_documents (
			index_id BIGINT NOT NULL REFERENCES ft_indexes(id) ON DELETE CASCADE,
			key_name TEXT NOT NULL,
			field TEXT NOT NULL,
			text_value TEXT,
			numeric_value DOUBLE PRECISION,
			PRIMARY KEY (index_id, key_name, field)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ft_documents_lookup ON ft_documents(index_id, key_name)`,
	}
}
