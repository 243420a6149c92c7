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

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// Snapshot serializes a key's full current state using the compact
// self-describing binary encoding from storage.Encode* (spec.md §4.5: a
// tracked write snapshots the entire collection, not a delta). Called by
// Ops.recordHistory after every tracked mutation; the result is passed to
// the HistoryRecorder.
func (o *Ops) Snapshot(ctx context.Context, db int, name string, t keyregistry.KeyType) ([]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, name, t)
	if err != nil {
		if isNotFound(err) {
			return nil, nil // key deleted by the same op (e.g. DEL, LPOP draining last element)
		}
		return nil, err
	}

	switch t {
	case keyregistry.TypeString:
		var v []byte
		row := o.backend.QueryRow(ctx, `SELECT value FROM strings WHERE key_id = ?`, meta.ID)
		if err := row.Scan(&v); err != nil {
			return nil, engerrors.Wrap(err, "snapshot string")
		}
		return v, nil

	case keyregistry.TypeHash:
		fields := make(map[string][]byte)
		err := o.backend.QueryRows(ctx, `SELECT field, value FROM hashes WHERE key_id = ?`, []interface{}{meta.ID}, func(rows *sql.Rows) error {
			var f string
			var v []byte
			if err := rows.Scan(&f, &v); err != nil {
				return err
			}
			fields[f] = v
			return nil
		})
		if err != nil {
			return nil, engerrors.Wrap(err, "snapshot hash")
		}
		return storage.EncodeFields(fields), nil

	case keyregistry.TypeList:
		var values [][]byte
		err := o.backend.QueryRows(ctx, `SELECT value FROM lists WHERE key_id = ? ORDER BY position ASC`, []interface{}{meta.ID}, func(rows *sql.Rows) error {
			var v []byte
			if err := rows.Scan(&v); err != nil {
				return err
			}
			values = append(values, v)
			return nil
		})
		if err != nil {
			return nil, engerrors.Wrap(err, "snapshot list")
		}
		return storage.EncodeList(values), nil

	case keyregistry.TypeSet:
		var values [][]byte
		err := o.backend.QueryRows(ctx, `SELECT member FROM sets WHERE key_id = ?`, []interface{}{meta.ID}, func(rows *sql.Rows) error {
			var v []byte
			if err := rows.Scan(&v); err != nil {
				return err
			}
			values = append(values, v)
			return nil
		})
		if err != nil {
			return nil, engerrors.Wrap(err, "snapshot set")
		}
		return storage.EncodeList(values), nil

	case keyregistry.TypeZSet:
		var members []storage.ZMember
		err := o.backend.QueryRows(ctx, `SELECT member, score FROM zsets WHERE key_id = ? ORDER BY score ASC, member ASC`, []interface{}{meta.ID}, func(rows *sql.Rows) error {
			var m storage.ZMember
			if err := rows.Scan(&m.Member, &m.Score); err != nil {
				return err
			}
			members = append(members, m)
			return nil
		})
		if err != nil {
			return nil, engerrors.Wrap(err, "snapshot zset")
		}
		return storage.EncodeZSet(members), nil

	default:
		return nil, nil // streams/groups are append-only; history tracks the type-specific log itself, not a full-state snapshot
	}
}
