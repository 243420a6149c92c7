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

package datatype

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

// SetOptions controls SET's variadic option set (spec.md §4.3 Strings).
type SetOptions struct {
	ExpireAtMs int64 // absolute deadline; 0 = no expiry change
	NX         bool  // only set if absent
	XX         bool  // only set if present
	KeepTTL    bool  // preserve the key's existing TTL instead of clearing it
}

// Get returns a string key's value, engerrors.ErrNotFound if absent, or
// engerrors.ErrWrongType if the key holds another type.
func (o *Ops) Get(ctx context.Context, db int, key string) ([]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return nil, err
	}
	var v []byte
	row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
	if err := row.Scan(&v); err != nil {
		return nil, engerrors.Wrap(err, "read string")
	}
	return v, nil
}

// Set implements SET with its NX/XX/EX/PX/KEEPTTL options. ok is false
// only when an NX/XX guard prevented the write (SET NX on an existing
// key, SET XX on a missing one); the store is left untouched in that
// case.
func (o *Ops) Set(ctx context.Context, db int, key string, value []byte, opts SetOptions) (ok bool, err error) {
	if opts.NX || opts.XX {
		exists, err := o.registry.Exists(ctx, db, key)
		if err != nil {
			return false, err
		}
		if opts.NX && exists {
			return false, nil
		}
		if opts.XX && !exists {
			return false, nil
		}
	}

	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return false, err
	}
	_, err = o.backend.Execute(ctx,
		`INSERT INTO strings (key_id, value) VALUES (?, ?)
		 ON CONFLICT (key_id) DO UPDATE SET value = excluded.value`,
		meta.ID, value)
	if err != nil {
		return false, engerrors.Wrap(err, "write string")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return false, err
	}
	if !opts.KeepTTL {
		deadline := int64(0)
		if opts.ExpireAtMs > 0 {
			deadline = opts.ExpireAtMs
		}
		if err := o.registry.ApplyExpire(ctx, meta.ID, deadline); err != nil {
			return false, err
		}
	}

	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return false, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeString, version, "SET"); err != nil {
		return false, err
	}
	return true, nil
}

// MGet returns one slice per key, nil where the key is absent or not a
// string (Redis MGET semantics: never errors per-key).
func (o *Ops) MGet(ctx context.Context, db int, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := o.Get(ctx, db, k)
		if err != nil {
			if isNotFound(err) || engerrors.Is(err, engerrors.ErrWrongType) {
				continue
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// MSet sets every pair unconditionally, each as its own tracked write.
func (o *Ops) MSet(ctx context.Context, db int, pairs map[string][]byte) error {
	for k, v := range pairs {
		if _, err := o.Set(ctx, db, k, v, SetOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// Append appends value to a string key (creating it if absent) and
// returns the new length.
func (o *Ops) Append(ctx context.Context, db int, key string, value []byte) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return 0, err
	}
	var cur []byte
	row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
	switch err := row.Scan(&cur); err {
	case nil, sql.ErrNoRows:
	default:
		return 0, engerrors.Wrap(err, "read string")
	}
	newVal := append(append([]byte{}, cur...), value...)

	_, err = o.backend.Execute(ctx,
		`INSERT INTO strings (key_id, value) VALUES (?, ?)
		 ON CONFLICT (key_id) DO UPDATE SET value = excluded.value`,
		meta.ID, newVal)
	if err != nil {
		return 0, engerrors.Wrap(err, "write string")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeString, version, "APPEND"); err != nil {
		return 0, err
	}
	return int64(len(newVal)), nil
}

// StrLen returns a string key's length, 0 if absent.
func (o *Ops) StrLen(ctx context.Context, db int, key string) (int64, error) {
	v, err := o.Get(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return int64(len(v)), nil
}

// IncrBy implements INCR/INCRBY/DECR/DECRBY: absent keys are treated as
// 0, a non-integer existing value fails with NOT_INTEGER.
func (o *Ops) IncrBy(ctx context.Context, db int, key string, delta int64) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return 0, err
	}
	var raw []byte
	row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
	scanErr := row.Scan(&raw)
	if scanErr != nil && scanErr != sql.ErrNoRows {
		return 0, engerrors.Wrap(scanErr, "read string")
	}

	cur := int64(0)
	if scanErr == nil {
		cur, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, engerrors.ErrNotInteger
		}
	}
	next := cur + delta

	_, err = o.backend.Execute(ctx,
		`INSERT INTO strings (key_id, value) VALUES (?, ?)
		 ON CONFLICT (key_id) DO UPDATE SET value = excluded.value`,
		meta.ID, []byte(strconv.FormatInt(next, 10)))
	if err != nil {
		return 0, engerrors.Wrap(err, "write string")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeString, version, "INCRBY"); err != nil {
		return 0, err
	}
	return next, nil
}

// IncrByFloat implements INCRBYFLOAT: absent keys are treated as 0, a
// non-float existing value fails with NOT_FLOAT.
func (o *Ops) IncrByFloat(ctx context.Context, db int, key string, delta float64) (float64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return 0, err
	}
	var raw []byte
	row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
	scanErr := row.Scan(&raw)
	if scanErr != nil && scanErr != sql.ErrNoRows {
		return 0, engerrors.Wrap(scanErr, "read string")
	}

	cur := 0.0
	if scanErr == nil {
		cur, err = strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, engerrors.ErrNotFloat
		}
	}
	next := cur + delta

	_, err = o.backend.Execute(ctx,
		`INSERT INTO strings (key_id, value) VALUES (?, ?)
		 ON CONFLICT (key_id) DO UPDATE SET value = excluded.value`,
		meta.ID, []byte(strconv.FormatFloat(next, 'f', -1, 64)))
	if err != nil {
		return 0, engerrors.Wrap(err, "write string")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeString, version, "INCRBYFLOAT"); err != nil {
		return 0, err
	}
	return next, nil
}

// GetRange returns the substring of a string key between start and end
// inclusive, with Redis's negative-index-from-tail convention.
func (o *Ops) GetRange(ctx context.Context, db int, key string, start, end int) ([]byte, error) {
	v, err := o.Get(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	s, e := normalizeRange(start, end, len(v))
	if s > e {
		return []byte{}, nil
	}
	return v[s : e+1], nil
}

// SetRange overwrites the string at offset with value, zero-padding if
// the key is shorter than offset, and returns the new length.
func (o *Ops) SetRange(ctx context.Context, db int, key string, offset int, value []byte) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeString)
	if err != nil {
		return 0, err
	}
	var cur []byte
	row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
	switch err := row.Scan(&cur); err {
	case nil, sql.ErrNoRows:
	default:
		return 0, engerrors.Wrap(err, "read string")
	}

	needed := offset + len(value)
	if len(cur) < needed {
		padded := make([]byte, needed)
		copy(padded, cur)
		cur = padded
	}
	copy(cur[offset:], value)

	_, err = o.backend.Execute(ctx,
		`INSERT INTO strings (key_id, value) VALUES (?, ?)
		 ON CONFLICT (key_id) DO UPDATE SET value = excluded.value`,
		meta.ID, cur)
	if err != nil {
		return 0, engerrors.Wrap(err, "write string")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeString, version, "SETRANGE"); err != nil {
		return 0, err
	}
	return int64(len(cur)), nil
}

// GetSet sets a new value and returns the previous one (nil if absent).
// The read and the write are separate steps (Get, then Set), not one
// transaction.
func (o *Ops) GetSet(ctx context.Context, db int, key string, value []byte) ([]byte, error) {
	prev, err := o.Get(ctx, db, key)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if _, err := o.Set(ctx, db, key, value, SetOptions{}); err != nil {
		return nil, err
	}
	return prev, nil
}

// SetNX implements SETNX: SET with the NX guard, returning whether it set.
func (o *Ops) SetNX(ctx context.Context, db int, key string, value []byte) (bool, error) {
	return o.Set(ctx, db, key, value, SetOptions{NX: true})
}

// Rename implements RENAME (overwrite: true) / RENAMENX (overwrite:
// false).
func (o *Ops) Rename(ctx context.Context, db int, src, dst string, overwrite bool) (bool, error) {
	return o.registry.Rename(ctx, db, src, dst, overwrite)
}

func normalizeRange(start, end, length int) (int, int) {
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	return start, end
}
