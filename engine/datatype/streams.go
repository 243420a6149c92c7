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
	"fmt"
	"strconv"
	"strings"

	"github.com/redlite-io/redlite/engine/keyregistry"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/storage"
)

// EntryID is a stream entry id, externally rendered as "ms-seq".
type EntryID struct {
	MS  int64
	Seq int64
}

func (id EntryID) String() string { return fmt.Sprintf("%d-%d", id.MS, id.Seq) }

func (id EntryID) less(other EntryID) bool {
	if id.MS != other.MS {
		return id.MS < other.MS
	}
	return id.Seq < other.Seq
}

func (id EntryID) lessEq(other EntryID) bool {
	return id == other || id.less(other)
}

// ParseEntryID parses "ms-seq", "ms" (seq defaults to 0), "-" (zero id),
// or "+" (max id).
func ParseEntryID(s string) (EntryID, error) {
	switch s {
	case "-":
		return EntryID{MS: 0, Seq: 0}, nil
	case "+":
		return EntryID{MS: math_MaxInt64, Seq: math_MaxInt64}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return EntryID{}, engerrors.ErrSyntax
	}
	seq := int64(0)
	if len(parts) == 2 {
		seq, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return EntryID{}, engerrors.ErrSyntax
		}
	}
	return EntryID{MS: ms, Seq: seq}, nil
}

const math_MaxInt64 = 1<<63 - 1

// TrimSpec describes XADD/XTRIM's MAXLEN/MINID trimming option.
type TrimSpec struct {
	// Kind is "maxlen" or "minid"; empty means no trimming.
	Kind string
	// Approx permits approximate trimming (spec.md §4.3: never less
	// strict than exact, i.e. the implementation may keep more than
	// requested, never fewer).
	Approx bool
	MaxLen int64
	MinID  EntryID
}

// StreamEntry is one read-back stream record.
type StreamEntry struct {
	ID      EntryID
	Fields  map[string][]byte
}

func (o *Ops) lastEntryID(ctx context.Context, keyID int64) (EntryID, bool, error) {
	row := o.backend.QueryRow(ctx, `SELECT entry_ms, entry_seq FROM streams WHERE key_id = ? ORDER BY entry_ms DESC, entry_seq DESC LIMIT 1`, keyID)
	var id EntryID
	if err := row.Scan(&id.MS, &id.Seq); err != nil {
		if err == sql.ErrNoRows {
			return EntryID{}, false, nil
		}
		return EntryID{}, false, engerrors.Wrap(err, "read last stream id")
	}
	return id, true, nil
}

// XAdd appends an entry. id == "*" generates the next monotonic id;
// explicit ids must exceed the stream's last id. nomkstream suppresses
// key creation, returning a zero EntryID and ok=false instead.
func (o *Ops) XAdd(ctx context.Context, db int, key string, id string, fields map[string][]byte, nomkstream bool, trim *TrimSpec) (EntryID, bool, error) {
	exists, err := o.registry.Exists(ctx, db, key)
	if err != nil {
		return EntryID{}, false, err
	}
	if !exists && nomkstream {
		return EntryID{}, false, nil
	}

	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return EntryID{}, false, err
	}
	last, hasLast, err := o.lastEntryID(ctx, meta.ID)
	if err != nil {
		return EntryID{}, false, err
	}

	var next EntryID
	if id == "*" {
		wall := o.now()
		ms := wall
		if hasLast && ms < last.MS {
			ms = last.MS // clock regression: advance to max(wall, last_ms) (spec.md §9, decided)
		}
		seq := int64(0)
		if hasLast && ms == last.MS {
			seq = last.Seq + 1
		}
		next = EntryID{MS: ms, Seq: seq}
	} else {
		parsed, err := ParseEntryID(id)
		if err != nil {
			return EntryID{}, false, err
		}
		if hasLast && !last.less(parsed) {
			return EntryID{}, false, engerrors.New(engerrors.CategoryRange, "OUT_OF_RANGE", "stream id must be greater than the stream's last id")
		}
		next = parsed
	}

	payload := storage.EncodeFields(fields)
	if _, err := o.backend.Execute(ctx,
		`INSERT INTO streams (key_id, entry_ms, entry_seq, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		meta.ID, next.MS, next.Seq, payload, o.now()); err != nil {
		return EntryID{}, false, engerrors.Wrap(err, "xadd")
	}

	if trim != nil && trim.Kind != "" {
		if _, err := o.xtrim(ctx, meta.ID, *trim); err != nil {
			return EntryID{}, false, err
		}
	}

	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return EntryID{}, false, err
	}
	version, err := o.registry.GetVersion(ctx, db, key)
	if err != nil {
		return EntryID{}, false, err
	}
	if err := o.history.RecordWrite(ctx, db, key, keyregistry.TypeStream, version, "XADD", nil); err != nil {
		return EntryID{}, false, err
	}
	o.wake(db, key)
	return next, true, nil
}

// XLen returns the stream's entry count, 0 if absent.
func (o *Ops) XLen(ctx context.Context, db int, key string) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	row := o.backend.QueryRow(ctx, `SELECT COUNT(*) FROM streams WHERE key_id = ?`, meta.ID)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, engerrors.Wrap(err, "xlen")
	}
	return n, nil
}

func (o *Ops) xrange(ctx context.Context, db int, key string, min, max EntryID, count int, reverse bool) ([]StreamEntry, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	order := "entry_ms ASC, entry_seq ASC"
	if reverse {
		order = "entry_ms DESC, entry_seq DESC"
	}
	query := `SELECT entry_ms, entry_seq, payload FROM streams WHERE key_id = ?
		AND (entry_ms > ? OR (entry_ms = ? AND entry_seq >= ?))
		AND (entry_ms < ? OR (entry_ms = ? AND entry_seq <= ?))
		ORDER BY ` + order
	args := []interface{}{meta.ID, min.MS, min.MS, min.Seq, max.MS, max.MS, max.Seq}
	if count > 0 {
		query += " LIMIT ?"
		args = append(args, count)
	}

	var out []StreamEntry
	err = o.backend.QueryRows(ctx, query, args, func(r *sql.Rows) error {
		var e StreamEntry
		var payload []byte
		if err := r.Scan(&e.ID.MS, &e.ID.Seq, &payload); err != nil {
			return err
		}
		fields, err := storage.DecodeFields(payload)
		if err != nil {
			return err
		}
		e.Fields = fields
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, engerrors.Wrap(err, "xrange")
	}
	return out, nil
}

// XRange returns entries with id in [min, max] ascending.
func (o *Ops) XRange(ctx context.Context, db int, key string, min, max EntryID, count int) ([]StreamEntry, error) {
	return o.xrange(ctx, db, key, min, max, count, false)
}

// XRevRange returns entries with id in [min, max] descending.
func (o *Ops) XRevRange(ctx context.Context, db int, key string, min, max EntryID, count int) ([]StreamEntry, error) {
	return o.xrange(ctx, db, key, min, max, count, true)
}

// XRead returns up to count entries after afterID for each key (id "$"
// is resolved to the stream's current last id by the caller before
// calling XRead, matching XREAD's "after current last" semantics).
func (o *Ops) XRead(ctx context.Context, db int, key string, afterID EntryID, count int) ([]StreamEntry, error) {
	min := EntryID{MS: afterID.MS, Seq: afterID.Seq + 1}
	if afterID.Seq == math_MaxInt64 {
		min = EntryID{MS: afterID.MS + 1, Seq: 0}
	}
	return o.xrange(ctx, db, key, min, EntryID{MS: math_MaxInt64, Seq: math_MaxInt64}, count, false)
}

// XLast returns the stream's last entry id, the zero EntryID if absent
// or empty; used to resolve XREAD's "$" id.
func (o *Ops) XLast(ctx context.Context, db int, key string) (EntryID, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return EntryID{}, nil
		}
		return EntryID{}, err
	}
	id, _, err := o.lastEntryID(ctx, meta.ID)
	return id, err
}

// XTrim applies a TrimSpec to an existing stream, returning the count of
// entries removed.
func (o *Ops) XTrim(ctx context.Context, db int, key string, spec TrimSpec) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := o.xtrim(ctx, meta.ID, spec)
	if err != nil || n == 0 {
		return n, err
	}
	if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
		return 0, err
	}
	return n, nil
}

func (o *Ops) xtrim(ctx context.Context, keyID int64, spec TrimSpec) (int64, error) {
	var res sql.Result
	var err error
	switch spec.Kind {
	case "maxlen":
		// Exact trim: delete everything beyond the newest MaxLen entries.
		// Approximate trim is permitted to keep more (never less strict),
		// so approx and exact share the same conservative query here.
		res, err = o.backend.Execute(ctx, `
			DELETE FROM streams WHERE key_id = ? AND (entry_ms, entry_seq) NOT IN (
				SELECT entry_ms, entry_seq FROM streams WHERE key_id = ?
				ORDER BY entry_ms DESC, entry_seq DESC LIMIT ?
			)`, keyID, keyID, spec.MaxLen)
	case "minid":
		res, err = o.backend.Execute(ctx, `
			DELETE FROM streams WHERE key_id = ? AND (entry_ms < ? OR (entry_ms = ? AND entry_seq < ?))`,
			keyID, spec.MinID.MS, spec.MinID.MS, spec.MinID.Seq)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, engerrors.Wrap(err, "xtrim")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, engerrors.Wrap(err, "read rows affected")
	}
	return n, nil
}

// XDel removes specific entry ids, returning the count actually removed.
func (o *Ops) XDel(ctx context.Context, db int, key string, ids []EntryID) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	var removed int64
	for _, id := range ids {
		res, err := o.backend.Execute(ctx, `DELETE FROM streams WHERE key_id = ? AND entry_ms = ? AND entry_seq = ?`, meta.ID, id.MS, id.Seq)
		if err != nil {
			return 0, engerrors.Wrap(err, "xdel")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, engerrors.Wrap(err, "read rows affected")
		}
		removed += n
	}
	if removed > 0 {
		if err := o.registry.BumpVersion(ctx, meta.ID); err != nil {
			return 0, err
		}
	}
	return removed, nil
}
