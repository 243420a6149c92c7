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
	"math"
	"strconv"
	"strings"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// ScoreBound is one endpoint of a ZRANGEBYSCORE-style range, accepting
// "-inf"/"+inf" and the exclusive-bound "(n" notation (spec.md §4.3).
type ScoreBound struct {
	Value     float64
	Exclusive bool
}

// ParseScoreBound parses a score range endpoint.
func ParseScoreBound(s string) (ScoreBound, error) {
	switch s {
	case "-inf":
		return ScoreBound{Value: math.Inf(-1)}, nil
	case "+inf", "inf":
		return ScoreBound{Value: math.Inf(1)}, nil
	}
	exclusive := strings.HasPrefix(s, "(")
	if exclusive {
		s = s[1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ScoreBound{}, engerrors.ErrNotFloat
	}
	return ScoreBound{Value: v, Exclusive: exclusive}, nil
}

func (b ScoreBound) satisfiesMin(score float64) bool {
	if b.Exclusive {
		return score > b.Value
	}
	return score >= b.Value
}

func (b ScoreBound) satisfiesMax(score float64) bool {
	if b.Exclusive {
		return score < b.Value
	}
	return score <= b.Value
}

// ZAdd upserts score-member pairs, returning the count of newly created
// members (ties broken lexicographically on member per spec.md §3).
func (o *Ops) ZAdd(ctx context.Context, db int, key string, members []storage.ZMember) (int64, error) {
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeZSet)
	if err != nil {
		return 0, err
	}
	var created int64
	for _, m := range members {
		var existed bool
		row := o.backend.QueryRow(ctx, `SELECT 1 FROM zsets WHERE key_id = ? AND member = ?`, meta.ID, m.Member)
		var one int
		switch err := row.Scan(&one); err {
		case nil:
			existed = true
		case sql.ErrNoRows:
		default:
			return 0, engerrors.Wrap(err, "probe zset member")
		}
		if !existed {
			created++
		}
		if _, err := o.backend.Execute(ctx,
			`INSERT INTO zsets (key_id, member, score) VALUES (?, ?, ?)
			 ON CONFLICT (key_id, member) DO UPDATE SET score = excluded.score`,
			meta.ID, m.Member, m.Score); err != nil {
			return 0, engerrors.Wrap(err, "zadd")
		}
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return 0, err
	}
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeZSet, version, "ZADD"); err != nil {
		return 0, err
	}
	return created, nil
}

// ZRem removes members, returning the count actually removed.
func (o *Ops) ZRem(ctx context.Context, db int, key string, members [][]byte) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeZSet)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	var removed int64
	for _, m := range members {
		res, err := o.backend.Execute(ctx, `DELETE FROM zsets WHERE key_id = ? AND member = ?`, meta.ID, m)
		if err != nil {
			return 0, engerrors.Wrap(err, "zrem")
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
	remaining, err := o.ZCard(ctx, db, key)
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
	if err := o.recordHistory(ctx, db, key, keyregistry.TypeZSet, version, "ZREM"); err != nil {
		return 0, err
	}
	return removed, nil
}

func (o *Ops) zsetMembers(ctx context.Context, db int, key string) ([]storage.ZMember, *keyregistry.KeyMeta, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeZSet)
	if err != nil {
		return nil, nil, err
	}
	var members []storage.ZMember
	err = o.backend.QueryRows(ctx, `SELECT member, score FROM zsets WHERE key_id = ? ORDER BY score ASC, member ASC`,
		[]interface{}{meta.ID}, func(r *sql.Rows) error {
			var m storage.ZMember
			if err := r.Scan(&m.Member, &m.Score); err != nil {
				return err
			}
			members = append(members, m)
			return nil
		})
	if err != nil {
		return nil, nil, engerrors.Wrap(err, "read zset")
	}
	return members, meta, nil
}

// ZScore returns a member's score, ErrNotFound if the key or member is
// absent.
func (o *Ops) ZScore(ctx context.Context, db int, key string, member []byte) (float64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeZSet)
	if err != nil {
		return 0, err
	}
	var score float64
	row := o.backend.QueryRow(ctx, `SELECT score FROM zsets WHERE key_id = ? AND member = ?`, meta.ID, member)
	if err := row.Scan(&score); err != nil {
		if err == sql.ErrNoRows {
			return 0, engerrors.ErrNotFound
		}
		return 0, engerrors.Wrap(err, "zscore")
	}
	return score, nil
}

// ZRank returns member's 0-based ascending rank, ErrNotFound if absent.
func (o *Ops) ZRank(ctx context.Context, db int, key string, member []byte) (int64, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		return 0, err
	}
	for i, m := range members {
		if bytes.Equal(m.Member, member) {
			return int64(i), nil
		}
	}
	return 0, engerrors.ErrNotFound
}

// ZRevRank returns member's 0-based descending rank.
func (o *Ops) ZRevRank(ctx context.Context, db int, key string, member []byte) (int64, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		return 0, err
	}
	for i, m := range members {
		if bytes.Equal(m.Member, member) {
			return int64(len(members) - 1 - i), nil
		}
	}
	return 0, engerrors.ErrNotFound
}

// ZCard returns the sorted set's cardinality, 0 if absent.
func (o *Ops) ZCard(ctx context.Context, db int, key string) (int64, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return int64(len(members)), nil
}

// ZRange returns members ranked start..stop ascending (negative indices
// from tail), optionally paired with scores.
func (o *Ops) ZRange(ctx context.Context, db int, key string, start, stop int) ([]storage.ZMember, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	s, e := normalizeRange(start, stop, len(members))
	if s > e || len(members) == 0 {
		return nil, nil
	}
	return members[s : e+1], nil
}

// ZRevRange returns members ranked start..stop descending.
func (o *Ops) ZRevRange(ctx context.Context, db int, key string, start, stop int) ([]storage.ZMember, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	reversed := make([]storage.ZMember, len(members))
	for i, m := range members {
		reversed[len(members)-1-i] = m
	}
	s, e := normalizeRange(start, stop, len(reversed))
	if s > e || len(reversed) == 0 {
		return nil, nil
	}
	return reversed[s : e+1], nil
}

// ZRangeByScore returns members with score in [min, max], optionally
// offset/limited.
func (o *Ops) ZRangeByScore(ctx context.Context, db int, key string, min, max ScoreBound, offset, count int) ([]storage.ZMember, error) {
	members, _, err := o.zsetMembers(ctx, db, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []storage.ZMember
	for _, m := range members {
		if min.satisfiesMin(m.Score) && max.satisfiesMax(m.Score) {
			out = append(out, m)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if count >= 0 && count < len(out) {
		out = out[:count]
	}
	return out, nil
}

// ZCount returns the count of members with score in [min, max].
func (o *Ops) ZCount(ctx context.Context, db int, key string, min, max ScoreBound) (int64, error) {
	members, err := o.ZRangeByScore(ctx, db, key, min, max, 0, -1)
	if err != nil {
		return 0, err
	}
	return int64(len(members)), nil
}

// ZIncrBy increments member's score by delta (creating it with score
// delta if absent) and returns the new score.
func (o *Ops) ZIncrBy(ctx context.Context, db int, key string, delta float64, member []byte) (float64, error) {
	cur, err := o.ZScore(ctx, db, key, member)
	if err != nil && !isNotFound(err) {
		return 0, err
	}
	next := cur + delta
	if _, err := o.ZAdd(ctx, db, key, []storage.ZMember{{Member: member, Score: next}}); err != nil {
		return 0, err
	}
	return next, nil
}

// ZRemRangeByRank removes members ranked start..stop ascending, returning
// the count removed.
func (o *Ops) ZRemRangeByRank(ctx context.Context, db int, key string, start, stop int) (int64, error) {
	members, err := o.ZRange(ctx, db, key, start, stop)
	if err != nil || len(members) == 0 {
		return 0, err
	}
	toRemove := make([][]byte, len(members))
	for i, m := range members {
		toRemove[i] = m.Member
	}
	return o.ZRem(ctx, db, key, toRemove)
}

// ZRemRangeByScore removes members with score in [min, max], returning
// the count removed.
func (o *Ops) ZRemRangeByScore(ctx context.Context, db int, key string, min, max ScoreBound) (int64, error) {
	members, err := o.ZRangeByScore(ctx, db, key, min, max, 0, -1)
	if err != nil || len(members) == 0 {
		return 0, err
	}
	toRemove := make([][]byte, len(members))
	for i, m := range members {
		toRemove[i] = m.Member
	}
	return o.ZRem(ctx, db, key, toRemove)
}
