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
	"bytes"
	"context"
	"database/sql"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

// nominalGap is the integer spacing list positions are rebalanced to
// (spec.md §3): large enough that ordinary pushes never collide, small
// enough that a 64-bit position never overflows across realistic list
// sizes.
const nominalGap = 1_000_000

type listRow struct {
	position int64
	value    []byte
}

func (o *Ops) listRows(ctx context.Context, keyID int64) ([]listRow, error) {
	var rows []listRow
	err := o.backend.QueryRows(ctx, `SELECT position, value FROM lists WHERE key_id = ? ORDER BY position ASC`,
		[]interface{}{keyID}, func(r *sql.Rows) error {
			var lr listRow
			if err := r.Scan(&lr.position, &lr.value); err != nil {
				return err
			}
			rows = append(rows, lr)
			return nil
		})
	if err != nil {
		return nil, engerrors.Wrap(err, "read list")
	}
	return rows, nil
}

func (o *Ops) listBounds(ctx context.Context, keyID int64) (min, max int64, empty bool, err error) {
	row := o.backend.QueryRow(ctx, `SELECT MIN(position), MAX(position) FROM lists WHERE key_id = ?`, keyID)
	var minN, maxN sql.NullInt64
	if err := row.Scan(&minN, &maxN); err != nil {
		return 0, 0, false, engerrors.Wrap(err, "read list bounds")
	}
	if !minN.Valid {
		return 0, 0, true, nil
	}
	return minN.Int64, maxN.Int64, false, nil
}

// LPush pushes values onto the head, one at a time in argument order (so
// `LPUSH k a b c` leaves the list as c, b, a, ...), and returns the new
// length.
func (o *Ops) LPush(ctx context.Context, db int, key string, values [][]byte) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		return 0, err
	}
	min, _, empty, err := o.listBounds(ctx, meta.ID)
	if err != nil {
		return 0, err
	}
	if empty {
		min = 0
	}
	for _, v := range values {
		min -= nominalGap
		if _, err := o.backend.Execute(ctx, `INSERT INTO lists (key_id, position, value) VALUES (?, ?, ?)`, meta.ID, min, v); err != nil {
			return 0, engerrors.Wrap(err, "push list")
		}
	}
	return o.finishListWrite(ctx, db, key, meta.ID, "LPUSH")
}

// RPush pushes values onto the tail, one at a time in argument order.
func (o *Ops) RPush(ctx context.Context, db int, key string, values [][]byte) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		return 0, err
	}
	_, max, empty, err := o.listBounds(ctx, meta.ID)
	if err != nil {
		return 0, err
	}
	if empty {
		max = 0
	}
	for _, v := range values {
		max += nominalGap
		if _, err := o.backend.Execute(ctx, `INSERT INTO lists (key_id, position, value) VALUES (?, ?, ?)`, meta.ID, max, v); err != nil {
			return 0, engerrors.Wrap(err, "push list")
		}
	}
	return o.finishListWrite(ctx, db, key, meta.ID, "RPUSH")
}

func (o *Ops) finishListWrite(ctx context.Context, db int, key string, keyID int64, op string) (int64, error) {
	if err := o.registry.BumpVersion(ctx, keyID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeList, version, op); err != nil {
		return 0, err
	}
	o.wake(db, key)
	n, err := o.LLen(ctx, db, key)
	return n, err
}

// LPop pops up to count elements from the head; count < 0 means "no
// count given" (single-element bulk-reply semantics left to the
// RESP layer). Returns nil if the list is absent or drained empty.
func (o *Ops) LPop(ctx context.Context, db int, key string, count int) ([][]byte, error) {
	return o.listPop(ctx, db, key, count, true)
}

// RPop pops up to count elements from the tail.
func (o *Ops) RPop(ctx context.Context, db int, key string, count int) ([][]byte, error) {
	return o.listPop(ctx, db, key, count, false)
}

func (o *Ops) listPop(ctx context.Context, db int, key string, count int, fromHead bool) ([][]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	order := "ASC"
	if !fromHead {
		order = "DESC"
	}
	rows, err := o.limitedListRows(ctx, meta.ID, order, count)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(rows))
	for i, r := range rows {
		out[i] = r.value
		if _, err := o.backend.Execute(ctx, `DELETE FROM lists WHERE key_id = ? AND position = ?`, meta.ID, r.position); err != nil {
			return nil, engerrors.Wrap(err, "pop list")
		}
	}

	remaining, err := o.LLen(ctx, db, key)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		if _, err := o.registry.Delete(ctx, db, key); err != nil {
			return nil, err
		}
	} else {
		if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
			return nil, err
		}
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return nil, err
	}
	op := "RPOP"
	if fromHead {
		op = "LPOP"
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeList, version, op); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Ops) limitedListRows(ctx context.Context, keyID int64, order string, limit int) ([]listRow, error) {
	var rows []listRow
	query := `SELECT position, value FROM lists WHERE key_id = ? ORDER BY position ` + order + ` LIMIT ?`
	err := o.backend.QueryRows(ctx, query, []interface{}{keyID, limit}, func(r *sql.Rows) error {
		var lr listRow
		if err := r.Scan(&lr.position, &lr.value); err != nil {
			return err
		}
		rows = append(rows, lr)
		return nil
	})
	if err != nil {
		return nil, engerrors.Wrap(err, "read list")
	}
	return rows, nil
}

// LLen returns the list's length, 0 if absent.
func (o *Ops) LLen(ctx context.Context, db int, key string) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	row := o.backend.QueryRow(ctx, `SELECT COUNT(*) FROM lists WHERE key_id = ?`, meta.ID)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, engerrors.Wrap(err, "count list")
	}
	return n, nil
}

// LRange returns elements between start and stop inclusive, Redis's
// negative-from-tail convention applied, empty if the window is
// backwards after normalization.
func (o *Ops) LRange(ctx context.Context, db int, key string, start, stop int) ([][]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	s, e := normalizeRange(start, stop, len(rows))
	if s > e || len(rows) == 0 {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, e-s+1)
	for i := s; i <= e; i++ {
		out = append(out, rows[i].value)
	}
	return out, nil
}

// LIndex returns the element at index (negative counts from tail),
// ErrNotFound if the key is absent or the index is out of bounds.
func (o *Ops) LIndex(ctx context.Context, db int, key string, index int) ([]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		return nil, err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		index += len(rows)
	}
	if index < 0 || index >= len(rows) {
		return nil, engerrors.ErrNotFound
	}
	return rows[index].value, nil
}

// LSet overwrites the element at index, OUT_OF_RANGE if out of bounds.
func (o *Ops) LSet(ctx context.Context, db int, key string, index int, value []byte) error {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		return err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		index += len(rows)
	}
	if index < 0 || index >= len(rows) {
		return engerrors.ErrOutOfRange
	}
	if _, err := o.backend.Execute(ctx, `UPDATE lists SET value = ? WHERE key_id = ? AND position = ?`,
		value, meta.ID, rows[index].position); err != nil {
		return engerrors.Wrap(err, "lset")
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return err
	}
	return o.recordHistory(ctx, db, key, keyregistry.TypeList, version, "LSET")
}

// LTrim keeps only the elements in [start, stop], deleting the rest.
func (o *Ops) LTrim(ctx context.Context, db int, key string, start, stop int) error {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return err
	}
	s, e := normalizeRange(start, stop, len(rows))

	var toDelete []int64
	for i, r := range rows {
		if i < s || i > e {
			toDelete = append(toDelete, r.position)
		}
	}
	for _, pos := range toDelete {
		if _, err := o.backend.Execute(ctx, `DELETE FROM lists WHERE key_id = ? AND position = ?`, meta.ID, pos); err != nil {
			return engerrors.Wrap(err, "ltrim")
		}
	}
	remaining, err := o.LLen(ctx, db, key)
	if err != nil {
		return err
	}
	if remaining == 0 {
		_, err := o.registry.Delete(ctx, db, key)
		return err
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return err
	}
	return o.recordHistory(ctx, db, key, keyregistry.TypeList, version, "LTRIM")
}

// LInsert inserts value before or after the first occurrence of pivot,
// rebalancing the whole list first if the midpoint would collide with an
// existing position (spec.md §4.3). Returns the new length, or -1 if
// pivot is not found.
func (o *Ops) LInsert(ctx context.Context, db int, key string, before bool, pivot, value []byte) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i, r := range rows {
		if bytes.Equal(r.value, pivot) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return -1, nil
	}

	var prevPos, nextPos int64
	haveGap := true
	if before {
		nextPos = rows[idx].position
		if idx == 0 {
			prevPos = nextPos - nominalGap*2
		} else {
			prevPos = rows[idx-1].position
		}
	} else {
		prevPos = rows[idx].position
		if idx == len(rows)-1 {
			nextPos = prevPos + nominalGap*2
		} else {
			nextPos = rows[idx+1].position
		}
	}
	mid := prevPos + (nextPos-prevPos)/2
	if nextPos-prevPos < 2 {
		haveGap = false
	}

	if !haveGap {
		if err := o.rebalanceList(ctx, meta.ID); err != nil {
			return 0, err
		}
		rows, err = o.listRows(ctx, meta.ID)
		if err != nil {
			return 0, err
		}
		for i, r := range rows {
			if bytes.Equal(r.value, pivot) {
				idx = i
				break
			}
		}
		if before {
			nextPos = rows[idx].position
			if idx == 0 {
				prevPos = nextPos - nominalGap*2
			} else {
				prevPos = rows[idx-1].position
			}
		} else {
			prevPos = rows[idx].position
			if idx == len(rows)-1 {
				nextPos = prevPos + nominalGap*2
			} else {
				nextPos = rows[idx+1].position
			}
		}
		mid = prevPos + (nextPos-prevPos)/2
	}

	if _, err := o.backend.Execute(ctx, `INSERT INTO lists (key_id, position, value) VALUES (?, ?, ?)`, meta.ID, mid, value); err != nil {
		return 0, engerrors.Wrap(err, "linsert")
	}
	return o.finishListWrite(ctx, db, key, meta.ID, "LINSERT")
}

// rebalanceList rewrites every position at nominal spacing, inside one
// store transaction (spec.md §4.3: rebalance must be atomic).
func (o *Ops) rebalanceList(ctx context.Context, keyID int64) error {
	rows, err := o.listRows(ctx, keyID)
	if err != nil {
		return err
	}
	return o.backend.Transaction(ctx, func(tx *sql.Tx) error {
		for i, r := range rows {
			newPos := int64(i) * nominalGap
			if newPos == r.position {
				continue
			}
			if _, err := tx.ExecContext(ctx, "UPDATE lists SET position = ? WHERE key_id = ? AND position = ?", newPos, keyID, r.position); err != nil {
				return engerrors.Wrap(err, "rebalance list")
			}
		}
		return nil
	})
}

// LRem removes occurrences of value: count > 0 scans head-to-tail and
// stops after removing count matches, count < 0 scans tail-to-head, 0
// removes every match. Returns the count removed.
func (o *Ops) LRem(ctx context.Context, db int, key string, count int, value []byte) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeList)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	rows, err := o.listRows(ctx, meta.ID)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		count = -count
	}

	var removed int64
	for _, r := range rows {
		if count > 0 && removed >= int64(count) {
			break
		}
		if !bytes.Equal(r.value, value) {
			continue
		}
		if _, err := o.backend.Execute(ctx, `DELETE FROM lists WHERE key_id = ? AND position = ?`, meta.ID, r.position); err != nil {
			return 0, engerrors.Wrap(err, "lrem")
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	remaining, err := o.LLen(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if remaining == 0 {
		if _, err := o.registry.Delete(ctx, db, key); err != nil {
			return 0, err
		}
		return removed, nil
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeList, version, "LREM"); err != nil {
		return 0, err
	}
	return removed, nil
}
