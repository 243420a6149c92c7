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
	"math/rand"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
)

// SAdd adds members, returning the count actually added (duplicates of
// existing members are no-ops).
func (o *Ops) SAdd(ctx context.Context, db int, key string, members [][]byte) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeSet)
	if err != nil {
		return 0, err
	}
	var added int64
	for _, m := range members {
		res, err := o.backend.Execute(ctx,
			`INSERT INTO sets (key_id, member) VALUES (?, ?) ON CONFLICT (key_id, member) DO NOTHING`, meta.ID, m)
		if err != nil {
			return 0, engerrors.Wrap(err, "sadd")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, engerrors.Wrap(err, "read rows affected")
		}
		added += n
	}
	if added == 0 {
		return 0, nil
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeSet, version, "SADD"); err != nil {
		return 0, err
	}
	return added, nil
}

// SRem removes members, returning the count actually removed.
func (o *Ops) SRem(ctx context.Context, db int, key string, members [][]byte) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeSet)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	var removed int64
	for _, m := range members {
		res, err := o.backend.Execute(ctx, `DELETE FROM sets WHERE key_id = ? AND member = ?`, meta.ID, m)
		if err != nil {
			return 0, engerrors.Wrap(err, "srem")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, engerrors.Wrap(err, "read rows affected")
		}
		removed += n
	}
	if removed == 0 {
		return 0, nil
	}
	remaining, err := o.SCard(ctx, db, key)
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
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeSet, version, "SREM"); err != nil {
		return 0, err
	}
	return removed, nil
}

// SMembers returns every member, empty if the key is absent.
func (o *Ops) SMembers(ctx context.Context, db int, key string) ([][]byte, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeSet)
	if err != nil {
		if isNotFound(err) {
			return [][]byte{}, nil
		}
		return nil, err
	}
	var out [][]byte
	err = o.backend.QueryRows(ctx, `SELECT member FROM sets WHERE key_id = ?`, []interface{}{meta.ID}, func(r *sql.Rows) error {
		var m []byte
		if err := r.Scan(&m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, engerrors.Wrap(err, "smembers")
	}
	return out, nil
}

// SIsMember reports whether member is in the set.
func (o *Ops) SIsMember(ctx context.Context, db int, key string, member []byte) (bool, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeSet)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	var one int
	row := o.backend.QueryRow(ctx, `SELECT 1 FROM sets WHERE key_id = ? AND member = ?`, meta.ID, member)
	switch err := row.Scan(&one); err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, engerrors.Wrap(err, "sismember")
	}
}

// SCard returns the set's cardinality, 0 if absent.
func (o *Ops) SCard(ctx context.Context, db int, key string) (int64, error) {
	members, err := o.SMembers(ctx, db, key)
	if err != nil {
		return 0, err
	}
	return int64(len(members)), nil
}

// SPop removes and returns up to count random members (1 if count <= 0).
func (o *Ops) SPop(ctx context.Context, db int, key string, count int) ([][]byte, error) {
	members, err := o.SMembers(ctx, db, key)
	if err != nil || len(members) == 0 {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
	if count > len(members) {
		count = len(members)
	}
	picked := members[:count]
	if _, err := o.SRem(ctx, db, key, picked); err != nil {
		return nil, err
	}
	return picked, nil
}

// SRandMember samples members without removing them: count > 0 returns
// up to count unique members (never more than the set's cardinality);
// count < 0 returns |count| samples, possibly repeating members.
func (o *Ops) SRandMember(ctx context.Context, db int, key string, count int) ([][]byte, error) {
	members, err := o.SMembers(ctx, db, key)
	if err != nil || len(members) == 0 {
		return nil, err
	}
	if count == 0 {
		return [][]byte{}, nil
	}
	if count > 0 {
		rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		if count > len(members) {
			count = len(members)
		}
		return append([][]byte{}, members[:count]...), nil
	}
	n := -count
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = members[rand.Intn(len(members))]
	}
	return out, nil
}

// SMove moves member from src to dst, returning whether it was present in
// src. It runs as two separate writes (SRem on src, then SAdd on dst), not
// as one transaction.
func (o *Ops) SMove(ctx context.Context, db int, src, dst string, member []byte) (bool, error) {
	present, err := o.SIsMember(ctx, db, src, member)
	if err != nil || !present {
		return false, err
	}
	if _, err := o.SRem(ctx, db, src, [][]byte{member}); err != nil {
		return false, err
	}
	if _, err := o.SAdd(ctx, db, dst, [][]byte{member}); err != nil {
		return false, err
	}
	return true, nil
}

// setOp applies f pairwise across the member sets of keys (first key as
// the accumulator seed).
func (o *Ops) setOp(ctx context.Context, db int, keys []string, f func(acc, next map[string]bool) map[string]bool) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}
	first, err := o.SMembers(ctx, db, keys[0])
	if err != nil {
		return nil, err
	}
	acc := toSet(first)
	for _, k := range keys[1:] {
		members, err := o.SMembers(ctx, db, k)
		if err != nil {
			return nil, err
		}
		acc = f(acc, toSet(members))
	}
	out := make([][]byte, 0, len(acc))
	for m := range acc {
		out = append(out, []byte(m))
	}
	return out, nil
}

func toSet(members [][]byte) map[string]bool {
	s := make(map[string]bool, len(members))
	for _, m := range members {
		s[string(m)] = true
	}
	return s
}

// SDiff returns members in keys[0] but none of the rest.
func (o *Ops) SDiff(ctx context.Context, db int, keys []string) ([][]byte, error) {
	return o.setOp(ctx, db, keys, func(acc, next map[string]bool) map[string]bool {
		for m := range next {
			delete(acc, m)
		}
		return acc
	})
}

// SInter returns members present in every key.
func (o *Ops) SInter(ctx context.Context, db int, keys []string) ([][]byte, error) {
	return o.setOp(ctx, db, keys, func(acc, next map[string]bool) map[string]bool {
		for m := range acc {
			if !next[m] {
				delete(acc, m)
			}
		}
		return acc
	})
}

// SUnion returns members present in any key.
func (o *Ops) SUnion(ctx context.Context, db int, keys []string) ([][]byte, error) {
	return o.setOp(ctx, db, keys, func(acc, next map[string]bool) map[string]bool {
		for m := range next {
			acc[m] = true
		}
		return acc
	})
}

// SDiffStore/SInterStore/SUnionStore compute the set op and overwrite
// dest with the result, returning its cardinality.
func (o *Ops) SDiffStore(ctx context.Context, db int, dest string, keys []string) (int64, error) {
	return o.storeSetOp(ctx, db, dest, keys, o.SDiff)
}

func (o *Ops) SInterStore(ctx context.Context, db int, dest string, keys []string) (int64, error) {
	return o.storeSetOp(ctx, db, dest, keys, o.SInter)
}

func (o *Ops) SUnionStore(ctx context.Context, db int, dest string, keys []string) (int64, error) {
	return o.storeSetOp(ctx, db, dest, keys, o.SUnion)
}

func (o *Ops) storeSetOp(ctx context.Context, db int, dest string, keys []string, op func(context.Context, int, []string) ([][]byte, error)) (int64, error) {
	result, err := op(ctx, db, keys)
	if err != nil {
		return 0, err
	}
	if _, err := o.registry.Delete(ctx, db, dest); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	n, err := o.SAdd(ctx, db, dest, result)
	if err != nil {
		return 0, err
	}
	return n, nil
}
