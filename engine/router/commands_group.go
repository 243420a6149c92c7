// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func groupCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"XGROUP":     {name: "XGROUP", minArgs: 2, mode: modeAny, fn: cmdXGroup},
		"XREADGROUP": {name: "XREADGROUP", minArgs: 6, mode: modeBlockingForbidden, fn: cmdXReadGroup},
		"XACK":       {name: "XACK", minArgs: 3, mode: modeAny, fn: cmdXAck},
		"XPENDING":   {name: "XPENDING", minArgs: 2, mode: modeAny, fn: cmdXPending},
		"XCLAIM":     {name: "XCLAIM", minArgs: 5, mode: modeAny, fn: cmdXClaim},
	}
}

func cmdXGroup(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	switch toUpper(args[0]) {
	case "CREATE":
		if len(args) < 4 {
			return errValue(wrongArgs())
		}
		mkstream := len(args) >= 5 && toUpper(args[4]) == "MKSTREAM"
		if err := rt.ops.XGroupCreate(ctx, sess.DB, string(args[1]), string(args[2]), string(args[3]), mkstream); err != nil {
			return errValue(err)
		}
		return okValue()
	case "DESTROY":
		if len(args) < 3 {
			return errValue(wrongArgs())
		}
		ok, err := rt.ops.XGroupDestroy(ctx, sess.DB, string(args[1]), string(args[2]))
		if err != nil {
			return errValue(err)
		}
		return boolInt(ok)
	case "SETID":
		if len(args) < 4 {
			return errValue(wrongArgs())
		}
		if err := rt.ops.XGroupSetID(ctx, sess.DB, string(args[1]), string(args[2]), string(args[3])); err != nil {
			return errValue(err)
		}
		return okValue()
	case "CREATECONSUMER":
		if len(args) < 4 {
			return errValue(wrongArgs())
		}
		ok, err := rt.ops.XGroupCreateConsumer(ctx, sess.DB, string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return errValue(err)
		}
		return boolInt(ok)
	case "DELCONSUMER":
		if len(args) < 4 {
			return errValue(wrongArgs())
		}
		n, err := rt.ops.XGroupDelConsumer(ctx, sess.DB, string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return errValue(err)
		}
		return intValue(n)
	default:
		return errValue(engerrors.ErrSyntax)
	}
}

// cmdXReadGroup implements XREADGROUP's non-blocking form; unlike plain
// XREAD it always consumes from the group's position rather than a
// client-supplied id, so a BLOCK wait would need to re-check against the
// group's last-delivered pointer rather than a fixed id — left
// single-pass for now (spec.md §4.10 only requires BLOCK on XREAD/BLPOP).
func cmdXReadGroup(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if toUpper(args[0]) != "GROUP" {
		return errValue(engerrors.ErrSyntax)
	}
	group := string(args[1])
	consumer := string(args[2])
	rest := args[3:]
	count := -1
	noack := false
	i := 0
	for i < len(rest) {
		switch toUpper(rest[i]) {
		case "COUNT":
			n, err := parseIntArg(rest[i+1])
			if err != nil {
				return errValue(err)
			}
			count = n
			i += 2
		case "BLOCK":
			i += 2
		case "NOACK":
			noack = true
			i++
		case "STREAMS":
			i++
			goto streams
		default:
			return errValue(engerrors.ErrSyntax)
		}
	}
streams:
	tokens := rest[i:]
	if len(tokens)%2 != 0 || len(tokens) == 0 {
		return errValue(engerrors.ErrSyntax)
	}
	n := len(tokens) / 2
	var out []resp.Value
	for j := 0; j < n; j++ {
		key := string(tokens[j])
		entries, err := rt.ops.XReadGroup(ctx, sess.DB, key, group, consumer, count, noack)
		if err != nil {
			return errValue(err)
		}
		out = append(out, resp.Array(resp.Bulk([]byte(key)), streamEntriesValue(entries)))
	}
	return resp.Array(out...)
}

func cmdXAck(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ids := make([]datatype.EntryID, 0, len(args)-2)
	for _, a := range args[2:] {
		id, err := datatype.ParseEntryID(string(a))
		if err != nil {
			return errValue(err)
		}
		ids = append(ids, id)
	}
	n, err := rt.ops.XAck(ctx, sess.DB, string(args[0]), string(args[1]), ids)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdXPending(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	key, group := string(args[0]), string(args[1])
	if len(args) == 2 {
		summary, err := rt.ops.XPending(ctx, sess.DB, key, group)
		if err != nil {
			return errValue(err)
		}
		consumerVals := make([]resp.Value, 0, len(summary.Consumers))
		for name, n := range summary.Consumers {
			consumerVals = append(consumerVals, resp.Array(resp.Bulk([]byte(name)), resp.Bulk([]byte(formatInt(n)))))
		}
		if summary.Count == 0 {
			return resp.Array(resp.Int(0), resp.NullBulk(), resp.NullBulk(), resp.NullArray())
		}
		return resp.Array(
			resp.Int(summary.Count),
			resp.Bulk([]byte(summary.MinID.String())),
			resp.Bulk([]byte(summary.MaxID.String())),
			resp.Array(consumerVals...),
		)
	}
	min, err := datatype.ParseEntryID(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	max, err := datatype.ParseEntryID(string(args[3]))
	if err != nil {
		return errValue(err)
	}
	count, err := parseIntArg(args[4])
	if err != nil {
		return errValue(err)
	}
	consumerFilter := ""
	if len(args) > 5 {
		consumerFilter = string(args[5])
	}
	entries, err := rt.ops.XPendingRange(ctx, sess.DB, key, group, min, max, count, consumerFilter)
	if err != nil {
		return errValue(err)
	}
	out := make([]resp.Value, len(entries))
	for i, e := range entries {
		out[i] = resp.Array(
			resp.Bulk([]byte(e.ID.String())),
			resp.Bulk([]byte(e.Consumer)),
			resp.Int(e.LastDeliveryMs),
			resp.Int(e.DeliveryCount),
		)
	}
	return resp.Array(out...)
}

func cmdXClaim(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	key, group, consumer := string(args[0]), string(args[1]), string(args[2])
	minIdle, err := parseInt(args[3])
	if err != nil {
		return errValue(err)
	}
	rest := args[4:]
	var ids []datatype.EntryID
	i := 0
	for i < len(rest) {
		id, perr := datatype.ParseEntryID(string(rest[i]))
		if perr != nil {
			break
		}
		ids = append(ids, id)
		i++
	}
	justID, force := false, false
	for ; i < len(rest); i++ {
		switch toUpper(rest[i]) {
		case "JUSTID":
			justID = true
		case "FORCE":
			force = true
		}
	}
	entries, err := rt.ops.XClaim(ctx, sess.DB, key, group, consumer, minIdle, ids, justID, force)
	if err != nil {
		return errValue(err)
	}
	if justID {
		out := make([]resp.Value, len(entries))
		for i, e := range entries {
			out[i] = resp.Bulk([]byte(e.ID.String()))
		}
		return resp.Array(out...)
	}
	return streamEntriesValue(entries)
}
