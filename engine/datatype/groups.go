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
)

// PendingEntry describes one row of a consumer group's PEL.
type PendingEntry struct {
	ID             EntryID
	Consumer       string
	DeliveryCount  int64
	LastDeliveryMs int64
}

// PendingSummary is XPENDING's no-args summary form.
type PendingSummary struct {
	Count     int64
	MinID     EntryID
	MaxID     EntryID
	Consumers map[string]int64
}

var errGroupNotFound = engerrors.New(engerrors.CategoryNotFound, "NOT_FOUND", "no such consumer group")

func (o *Ops) groupID(ctx context.Context, keyID int64, group string) (int64, error) {
	row := o.backend.QueryRow(ctx, `SELECT id FROM stream_groups WHERE key_id = ? AND name = ?`, keyID, group)
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, errGroupNotFound
		}
		return 0, engerrors.Wrap(err, "lookup group")
	}
	return id, nil
}

// XGroupCreate creates a consumer group starting at id ("$" = the
// stream's current last id). mkstream creates the stream if absent.
func (o *Ops) XGroupCreate(ctx context.Context, db int, key, group, id string, mkstream bool) error {
	exists, err := o.registry.Exists(ctx, db, key)
	if err != nil {
		return err
	}
	if !exists && !mkstream {
		return engerrors.ErrNotFound
	}
	meta, err := o.registry.Ensure(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return err
	}

	start := EntryID{}
	if id == "$" {
		last, hasLast, err := o.lastEntryID(ctx, meta.ID)
		if err != nil {
			return err
		}
		if hasLast {
			start = last
		}
	} else {
		start, err = ParseEntryID(id)
		if err != nil {
			return err
		}
	}

	_, err = o.backend.Execute(ctx,
		`INSERT INTO stream_groups (key_id, name, last_delivered_ms, last_delivered_seq) VALUES (?, ?, ?, ?)`,
		meta.ID, group, start.MS, start.Seq)
	if err != nil {
		return engerrors.Wrap(err, "xgroup create")
	}
	return nil
}

// XGroupDestroy removes a consumer group and its PEL/consumers.
func (o *Ops) XGroupDestroy(ctx context.Context, db int, key, group string) (bool, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	res, err := o.backend.Execute(ctx, `DELETE FROM stream_groups WHERE key_id = ? AND name = ?`, meta.ID, group)
	if err != nil {
		return false, engerrors.Wrap(err, "xgroup destroy")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, engerrors.Wrap(err, "read rows affected")
	}
	return n > 0, nil
}

// XGroupSetID repositions a group's last-delivered id.
func (o *Ops) XGroupSetID(ctx context.Context, db int, key, group, id string) error {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return err
	}
	target := EntryID{}
	if id == "$" {
		last, hasLast, err := o.lastEntryID(ctx, meta.ID)
		if err != nil {
			return err
		}
		if hasLast {
			target = last
		}
	} else {
		target, err = ParseEntryID(id)
		if err != nil {
			return err
		}
	}
	_, err = o.backend.Execute(ctx, `UPDATE stream_groups SET last_delivered_ms = ?, last_delivered_seq = ? WHERE id = ?`,
		target.MS, target.Seq, gid)
	return engerrors.Wrap(err, "xgroup setid")
}

// XGroupCreateConsumer explicitly registers a consumer, returning
// whether it was newly created.
func (o *Ops) XGroupCreateConsumer(ctx context.Context, db int, key, group, consumer string) (bool, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return false, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return false, err
	}
	return o.ensureConsumer(ctx, gid, consumer)
}

func (o *Ops) ensureConsumer(ctx context.Context, gid int64, consumer string) (bool, error) {
	var existing int64
	row := o.backend.QueryRow(ctx, `SELECT id FROM stream_consumers WHERE group_id = ? AND name = ?`, gid, consumer)
	switch err := row.Scan(&existing); err {
	case nil:
		return false, nil
	case sql.ErrNoRows:
	default:
		return false, engerrors.Wrap(err, "probe consumer")
	}
	_, err := o.backend.Execute(ctx, `INSERT INTO stream_consumers (group_id, name, last_seen_ms) VALUES (?, ?, ?)`, gid, consumer, o.now())
	if err != nil {
		return false, engerrors.Wrap(err, "create consumer")
	}
	return true, nil
}

func (o *Ops) consumerID(ctx context.Context, gid int64, consumer string) (int64, error) {
	row := o.backend.QueryRow(ctx, `SELECT id FROM stream_consumers WHERE group_id = ? AND name = ?`, gid, consumer)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, engerrors.Wrap(err, "lookup consumer")
	}
	return id, nil
}

// XGroupDelConsumer removes a consumer, returning the count of pending
// entries it held (which become unclaimed, per Redis semantics).
func (o *Ops) XGroupDelConsumer(ctx context.Context, db int, key, group, consumer string) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return 0, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return 0, err
	}
	cid, err := o.consumerID(ctx, gid, consumer)
	if err != nil {
		return 0, err
	}
	row := o.backend.QueryRow(ctx, `SELECT COUNT(*) FROM stream_pending WHERE group_id = ? AND consumer_id = ?`, gid, cid)
	var pending int64
	if err := row.Scan(&pending); err != nil {
		return 0, engerrors.Wrap(err, "count pending")
	}
	if _, err := o.backend.Execute(ctx, `DELETE FROM stream_consumers WHERE id = ?`, cid); err != nil {
		return 0, engerrors.Wrap(err, "del consumer")
	}
	return pending, nil
}

// XReadGroup delivers new entries (ids requested as ">") to consumer,
// enrolling them in the PEL unless noack, and advances the group's
// last-delivered id.
func (o *Ops) XReadGroup(ctx context.Context, db int, key, group, consumer string, count int, noack bool) ([]StreamEntry, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return nil, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return nil, err
	}
	if _, err := o.ensureConsumer(ctx, gid, consumer); err != nil {
		return nil, err
	}
	cid, err := o.consumerID(ctx, gid, consumer)
	if err != nil {
		return nil, err
	}

	row := o.backend.QueryRow(ctx, `SELECT last_delivered_ms, last_delivered_seq FROM stream_groups WHERE id = ?`, gid)
	var last EntryID
	if err := row.Scan(&last.MS, &last.Seq); err != nil {
		return nil, engerrors.Wrap(err, "read group position")
	}

	entries, err := o.XRead(ctx, db, key, last, count)
	if err != nil || len(entries) == 0 {
		return entries, err
	}

	now := o.now()
	for _, e := range entries {
		if !noack {
			if _, err := o.backend.Execute(ctx,
				`INSERT INTO stream_pending (group_id, entry_ms, entry_seq, consumer_id, delivery_count, last_delivery_ms) VALUES (?, ?, ?, ?, 1, ?)
				 ON CONFLICT (group_id, entry_ms, entry_seq) DO UPDATE SET consumer_id = excluded.consumer_id, delivery_count = stream_pending.delivery_count + 1, last_delivery_ms = excluded.last_delivery_ms`,
				gid, e.ID.MS, e.ID.Seq, cid, now); err != nil {
				return nil, engerrors.Wrap(err, "enroll pel")
			}
		}
	}
	newLast := entries[len(entries)-1].ID
	if _, err := o.backend.Execute(ctx, `UPDATE stream_groups SET last_delivered_ms = ?, last_delivered_seq = ? WHERE id = ?`,
		newLast.MS, newLast.Seq, gid); err != nil {
		return nil, engerrors.Wrap(err, "advance group position")
	}
	if _, err := o.backend.Execute(ctx, `UPDATE stream_consumers SET last_seen_ms = ? WHERE id = ?`, now, cid); err != nil {
		return nil, engerrors.Wrap(err, "touch consumer")
	}
	return entries, nil
}

// XAck removes entries from a group's PEL, returning the count removed.
func (o *Ops) XAck(ctx context.Context, db int, key, group string, ids []EntryID) (int64, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return 0, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return 0, err
	}
	var acked int64
	for _, id := range ids {
		res, err := o.backend.Execute(ctx, `DELETE FROM stream_pending WHERE group_id = ? AND entry_ms = ? AND entry_seq = ?`, gid, id.MS, id.Seq)
		if err != nil {
			return 0, engerrors.Wrap(err, "xack")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, engerrors.Wrap(err, "read rows affected")
		}
		acked += n
	}
	return acked, nil
}

// XPending returns the group's PEL summary: total pending, min/max id,
// and a per-consumer pending count.
func (o *Ops) XPending(ctx context.Context, db int, key, group string) (PendingSummary, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return PendingSummary{}, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return PendingSummary{}, err
	}

	summary := PendingSummary{Consumers: map[string]int64{}}
	err = o.backend.QueryRows(ctx, `
		SELECT p.entry_ms, p.entry_seq, c.name FROM stream_pending p
		JOIN stream_consumers c ON c.id = p.consumer_id
		WHERE p.group_id = ? ORDER BY p.entry_ms ASC, p.entry_seq ASC`,
		[]interface{}{gid}, func(r *sql.Rows) error {
			var id EntryID
			var name string
			if err := r.Scan(&id.MS, &id.Seq, &name); err != nil {
				return err
			}
			if summary.Count == 0 {
				summary.MinID = id
			}
			summary.MaxID = id
			summary.Count++
			summary.Consumers[name]++
			return nil
		})
	if err != nil {
		return PendingSummary{}, engerrors.Wrap(err, "xpending")
	}
	return summary, nil
}

// XPendingRange returns detailed PEL rows between min and max id.
func (o *Ops) XPendingRange(ctx context.Context, db int, key, group string, min, max EntryID, count int, consumerFilter string) ([]PendingEntry, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return nil, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return nil, err
	}

	query := `SELECT p.entry_ms, p.entry_seq, c.name, p.delivery_count, p.last_delivery_ms
		FROM stream_pending p JOIN stream_consumers c ON c.id = p.consumer_id
		WHERE p.group_id = ?
		AND (p.entry_ms > ? OR (p.entry_ms = ? AND p.entry_seq >= ?))
		AND (p.entry_ms < ? OR (p.entry_ms = ? AND p.entry_seq <= ?))`
	args := []interface{}{gid, min.MS, min.MS, min.Seq, max.MS, max.MS, max.Seq}
	if consumerFilter != "" {
		query += " AND c.name = ?"
		args = append(args, consumerFilter)
	}
	query += " ORDER BY p.entry_ms ASC, p.entry_seq ASC"
	if count > 0 {
		query += " LIMIT ?"
		args = append(args, count)
	}

	var out []PendingEntry
	err = o.backend.QueryRows(ctx, query, args, func(r *sql.Rows) error {
		var pe PendingEntry
		if err := r.Scan(&pe.ID.MS, &pe.ID.Seq, &pe.Consumer, &pe.DeliveryCount, &pe.LastDeliveryMs); err != nil {
			return err
		}
		out = append(out, pe)
		return nil
	})
	if err != nil {
		return nil, engerrors.Wrap(err, "xpending range")
	}
	return out, nil
}

// XClaim transfers ownership of PEL entries idle at least minIdleMs to
// consumer. justID returns only ids without re-reading payloads; force
// creates PEL rows for ids not already pending.
func (o *Ops) XClaim(ctx context.Context, db int, key, group, consumer string, minIdleMs int64, ids []EntryID, justID, force bool) ([]StreamEntry, error) {
	meta, err := o.registry.GetTyped(ctx, db, key, keyregistry.TypeStream)
	if err != nil {
		return nil, err
	}
	gid, err := o.groupID(ctx, meta.ID, group)
	if err != nil {
		return nil, err
	}
	if _, err := o.ensureConsumer(ctx, gid, consumer); err != nil {
		return nil, err
	}
	cid, err := o.consumerID(ctx, gid, consumer)
	if err != nil {
		return nil, err
	}

	now := o.now()
	var claimed []EntryID
	for _, id := range ids {
		var lastDelivery int64
		var deliveryCount int64
		row := o.backend.QueryRow(ctx, `SELECT last_delivery_ms, delivery_count FROM stream_pending WHERE group_id = ? AND entry_ms = ? AND entry_seq = ?`, gid, id.MS, id.Seq)
		scanErr := row.Scan(&lastDelivery, &deliveryCount)
		if scanErr == sql.ErrNoRows {
			if !force {
				continue
			}
			lastDelivery = now
			deliveryCount = 0
		} else if scanErr != nil {
			return nil, engerrors.Wrap(scanErr, "xclaim")
		} else if now-lastDelivery < minIdleMs {
			continue
		}
		if _, err := o.backend.Execute(ctx,
			`INSERT INTO stream_pending (group_id, entry_ms, entry_seq, consumer_id, delivery_count, last_delivery_ms) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (group_id, entry_ms, entry_seq) DO UPDATE SET consumer_id = excluded.consumer_id, delivery_count = stream_pending.delivery_count + 1, last_delivery_ms = excluded.last_delivery_ms`,
			gid, id.MS, id.Seq, cid, deliveryCount+1, now); err != nil {
			return nil, engerrors.Wrap(err, "xclaim")
		}
		claimed = append(claimed, id)
	}

	if justID || len(claimed) == 0 {
		out := make([]StreamEntry, len(claimed))
		for i, id := range claimed {
			out[i] = StreamEntry{ID: id}
		}
		return out, nil
	}

	var out []StreamEntry
	for _, id := range claimed {
		entries, err := o.XRange(ctx, db, key, id, id, 1)
		if err != nil {
			return nil, err
		}
		if len(entries) == 1 {
			out = append(out, entries[0])
		}
	}
	return out, nil
}
