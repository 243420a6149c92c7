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

// Package keyregistry implements KeyRegistry (spec.md §4.2): the single
// point of truth for a key's type, version, and expiry, shared by every
// DataTypeOps command so that TTL and optimistic-lock semantics stay
// uniform across types.
package keyregistry

import (
	"context"
	"database/sql"
	"time"

	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// KeyType is the redis data type a key currently holds.
type KeyType string

const (
	TypeString KeyType = "string"
	TypeHash   KeyType = "hash"
	TypeList   KeyType = "list"
	TypeSet    KeyType = "set"
	TypeZSet   KeyType = "zset"
	TypeStream KeyType = "stream"
)

// KeyMeta describes a key's registry row.
type KeyMeta struct {
	ID        int64
	DB        int
	Name      string
	Type      KeyType
	ExpireAt  *int64 // unix millis, nil = no TTL
	CreatedAt int64
	UpdatedAt int64
	Version   int64
}

// Clock returns the current wall-clock time in unix milliseconds; swapped
// out in tests so TTL/version behavior is deterministic.
type Clock func() int64

// WallClockMillis is the default Clock.
func WallClockMillis() int64 { return time.Now().UnixMilli() }

// Registry implements KeyRegistry over a storage.Backend.
type Registry struct {
	backend storage.Backend
	now     Clock
}

// New constructs a Registry. A nil clock defaults to WallClockMillis.
func New(backend storage.Backend, clock Clock) *Registry {
	if clock == nil {
		clock = WallClockMillis
	}
	return &Registry{backend: backend, now: clock}
}

// GetTyped looks up a key, returning engerrors.ErrNotFound if absent or
// lazily expired (spec.md §4.4: expiry is checked on every read). If
// wantType is non-empty and the key exists with a different type,
// returns engerrors.ErrWrongType.
func (r *Registry) GetTyped(ctx context.Context, db int, name string, wantType KeyType) (*KeyMeta, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, engerrors.ErrNotFound
	}
	if r.expired(meta) {
		if err := r.expireNow(ctx, meta.ID); err != nil {
			return nil, err
		}
		return nil, engerrors.ErrNotFound
	}
	if wantType != "" && meta.Type != wantType {
		return nil, engerrors.ErrWrongType
	}
	return meta, nil
}

// Ensure returns the key's registry row, creating one of the given type
// if absent. If the key exists with a different type, returns
// engerrors.ErrWrongType and performs no write.
func (r *Registry) Ensure(ctx context.Context, db int, name string, t KeyType) (*KeyMeta, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if meta != nil && r.expired(meta) {
		if err := r.expireNow(ctx, meta.ID); err != nil {
			return nil, err
		}
		meta = nil
	}
	if meta != nil {
		if meta.Type != t {
			return nil, engerrors.ErrWrongType
		}
		return meta, nil
	}

	now := r.now()
	res, err := r.backend.Execute(ctx,
		`INSERT INTO keys (db, name, type, created_at, updated_at, version) VALUES (?, ?, ?, ?, ?, 0)`,
		db, name, string(t), now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, engerrors.Wrap(err, "read inserted key id")
	}
	return &KeyMeta{ID: id, DB: db, Name: name, Type: t, CreatedAt: now, UpdatedAt: now, Version: 0}, nil
}

// BumpVersion increments a key's optimistic-lock version and updated_at,
// used by every mutating DataTypeOps command and checked by WATCH
// (spec.md §4.9).
func (r *Registry) BumpVersion(ctx context.Context, keyID int64) error {
	_, err := r.backend.Execute(ctx,
		`UPDATE keys SET version = version + 1, updated_at = ? WHERE id = ?`,
		r.now(), keyID)
	return err
}

// GetVersion returns a key's current version, used by WATCH to snapshot
// the value to compare against at EXEC time.
func (r *Registry) GetVersion(ctx context.Context, db int, name string) (int64, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return 0, err
	}
	if meta == nil || r.expired(meta) {
		return 0, nil
	}
	return meta.Version, nil
}

// ApplyExpire sets or clears a key's TTL. absExpireAtMs <= 0 clears it
// (PERSIST semantics); otherwise it is an absolute unix-millis deadline.
func (r *Registry) ApplyExpire(ctx context.Context, keyID int64, absExpireAtMs int64) error {
	var expireAt interface{}
	if absExpireAtMs > 0 {
		expireAt = absExpireAtMs
	}
	_, err := r.backend.Execute(ctx,
		`UPDATE keys SET expire_at = ? WHERE id = ?`, expireAt, keyID)
	return err
}

// Persist clears a key's TTL, returning whether a TTL had been set.
func (r *Registry) Persist(ctx context.Context, db int, name string) (bool, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return false, err
	}
	if meta == nil || r.expired(meta) || meta.ExpireAt == nil {
		return false, nil
	}
	if err := r.ApplyExpire(ctx, meta.ID, 0); err != nil {
		return false, err
	}
	return true, nil
}

// GetTTLMillis reports the remaining TTL for a key: -2 if it does not
// exist, -1 if it exists with no TTL, else the remaining milliseconds
// (spec.md §4.2, mirroring PTTL semantics).
func (r *Registry) GetTTLMillis(ctx context.Context, db int, name string) (int64, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return 0, err
	}
	if meta == nil {
		return -2, nil
	}
	if r.expired(meta) {
		if err := r.expireNow(ctx, meta.ID); err != nil {
			return 0, err
		}
		return -2, nil
	}
	if meta.ExpireAt == nil {
		return -1, nil
	}
	remaining := *meta.ExpireAt - r.now()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Delete removes a key's registry row; cascading foreign keys remove all
// type-table rows (spec.md §3).
func (r *Registry) Delete(ctx context.Context, db int, name string) (bool, error) {
	res, err := r.backend.Execute(ctx, `DELETE FROM keys WHERE db = ? AND name = ?`, db, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, engerrors.Wrap(err, "read rows affected")
	}
	return n > 0, nil
}

// Exists reports whether a (non-expired) key exists, lazily expiring it
// first if its deadline has passed.
func (r *Registry) Exists(ctx context.Context, db int, name string) (bool, error) {
	meta, err := r.lookup(ctx, db, name)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}
	if r.expired(meta) {
		if err := r.expireNow(ctx, meta.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Rename moves a key's registry row (and, via cascade, none of its data
// rows since those key off key_id, not name) to a new name within the
// same db. If dest already exists it is overwritten (RENAME semantics);
// overwrite: false implements RENAMENX, returning false without error if
// dest exists.
func (r *Registry) Rename(ctx context.Context, db int, src, dst string, overwrite bool) (bool, error) {
	srcMeta, err := r.lookup(ctx, db, src)
	if err != nil {
		return false, err
	}
	if srcMeta == nil || r.expired(srcMeta) {
		return false, engerrors.ErrNotFound
	}
	dstMeta, err := r.lookup(ctx, db, dst)
	if err != nil {
		return false, err
	}
	if dstMeta != nil && !r.expired(dstMeta) {
		if !overwrite {
			return false, nil
		}
		if _, err := r.backend.Execute(ctx, `DELETE FROM keys WHERE id = ?`, dstMeta.ID); err != nil {
			return false, err
		}
	}
	_, err = r.backend.Execute(ctx, `UPDATE keys SET name = ?, updated_at = ? WHERE id = ?`, dst, r.now(), srcMeta.ID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) lookup(ctx context.Context, db int, name string) (*KeyMeta, error) {
	row := r.backend.QueryRow(ctx,
		`SELECT id, type, expire_at, created_at, updated_at, version FROM keys WHERE db = ? AND name = ?`,
		db, name)

	var meta KeyMeta
	var t string
	var expireAt sql.NullInt64
	if err := row.Scan(&meta.ID, &t, &expireAt, &meta.CreatedAt, &meta.UpdatedAt, &meta.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, engerrors.Wrap(err, "lookup key")
	}
	meta.DB = db
	meta.Name = name
	meta.Type = KeyType(t)
	if expireAt.Valid {
		v := expireAt.Int64
		meta.ExpireAt = &v
	}
	return &meta, nil
}

func (r *Registry) expired(meta *KeyMeta) bool {
	return meta.ExpireAt != nil && *meta.ExpireAt <= r.now()
}

func (r *Registry) expireNow(ctx context.Context, keyID int64) error {
	_, err := r.backend.Execute(ctx, `DELETE FROM keys WHERE id = ?`, keyID)
	return err
}
