// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"
	"time"

	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func streamCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"XADD":      {name: "XADD", minArgs: 4, mode: modeAny, fn: cmdXAdd},
		"XLEN":      {name: "XLEN", minArgs: 1, mode: modeAny, fn: cmdXLen},
		"XRANGE":    {name: "XRANGE", minArgs: 3, mode: modeAny, fn: cmdXRange},
		"XREVRANGE": {name: "XREVRANGE", minArgs: 3, mode: modeAny, fn: cmdXRevRange},
		"XTRIM":     {name: "XTRIM", minArgs: 3, mode: modeAny, fn: cmdXTrim},
		"XDEL":      {name: "XDEL", minArgs: 2, mode: modeAny, fn: cmdXDel},
		"XREAD":     {name: "XREAD", minArgs: 3, mode: modeBlockingForbidden, fn: cmdXRead},
	}
}

func streamEntryValue(e datatype.StreamEntry) resp.Value {
	var fields []resp.Value
	for k, v := range e.Fields {
		fields = append(fields, resp.Bulk([]byte(k)), resp.Bulk(v))
	}
	return resp.Array(resp.Bulk([]byte(e.ID.String())), resp.Array(fields...))
}

func streamEntriesValue(entries []datatype.StreamEntry) resp.Value {
	vals := make([]resp.Value, len(entries))
	for i, e := range entries {
		vals[i] = streamEntryValue(e)
	}
	return resp.Array(vals...)
}

// parseTrimSpec parses the optional MAXLEN [~|=] n / MINID [~|=] id clause
// shared by XADD and XTRIM, returning the remaining unconsumed args.
func parseTrimSpec(args [][]byte) (*datatype.TrimSpec, [][]byte, error) {
	if len(args) == 0 {
		return nil, args, nil
	}
	spec := &datatype.TrimSpec{}
	switch toUpper(args[0]) {
	case "MAXLEN":
		spec.Kind = "maxlen"
	case "MINID":
		spec.Kind = "minid"
	default:
		return nil, args, nil
	}
	args = args[1:]
	if len(args) > 0 && (string(args[0]) == "~" || string(args[0]) == "=") {
		spec.Approx = string(args[0]) == "~"
		args = args[1:]
	}
	if len(args) == 0 {
		return nil, nil, engerrors.ErrSyntax
	}
	if spec.Kind == "maxlen" {
		n, err := parseInt(args[0])
		if err != nil {
			return nil, nil, err
		}
		spec.MaxLen = n
	} else {
		id, err := datatype.ParseEntryID(string(args[0]))
		if err != nil {
			return nil, nil, err
		}
		spec.MinID = id
	}
	return spec, args[1:], nil
}

func cmdXAdd(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	key := string(args[0])
	rest := args[1:]
	nomkstream := false
	if len(rest) > 0 && toUpper(rest[0]) == "NOMKSTREAM" {
		nomkstream = true
		rest = rest[1:]
	}
	trim, rest, err := parseTrimSpec(rest)
	if err != nil {
		return errValue(err)
	}
	if len(rest) < 1 || len(rest[1:])%2 != 0 {
		return errValue(wrongArgs())
	}
	id := string(rest[0])
	fields := make(map[string][]byte, len(rest[1:])/2)
	for i := 1; i < len(rest); i += 2 {
		fields[string(rest[i])] = rest[i+1]
	}
	newID, ok, err := rt.ops.XAdd(ctx, sess.DB, key, id, fields, nomkstream, trim)
	if err != nil {
		return errValue(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Bulk([]byte(newID.String()))
}

func cmdXLen(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.XLen(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdXRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	min, err := datatype.ParseEntryID(string(args[1]))
	if err != nil {
		return errValue(err)
	}
	max, err := datatype.ParseEntryID(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	count := -1
	if len(args) >= 5 && toUpper(args[3]) == "COUNT" {
		count, err = parseIntArg(args[4])
		if err != nil {
			return errValue(err)
		}
	}
	entries, err := rt.ops.XRange(ctx, sess.DB, string(args[0]), min, max, count)
	if err != nil {
		return errValue(err)
	}
	return streamEntriesValue(entries)
}

func cmdXRevRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	max, err := datatype.ParseEntryID(string(args[1]))
	if err != nil {
		return errValue(err)
	}
	min, err := datatype.ParseEntryID(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	count := -1
	if len(args) >= 5 && toUpper(args[3]) == "COUNT" {
		count, err = parseIntArg(args[4])
		if err != nil {
			return errValue(err)
		}
	}
	entries, err := rt.ops.XRevRange(ctx, sess.DB, string(args[0]), min, max, count)
	if err != nil {
		return errValue(err)
	}
	return streamEntriesValue(entries)
}

func cmdXTrim(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	spec, _, err := parseTrimSpec(args[1:])
	if err != nil {
		return errValue(err)
	}
	if spec == nil {
		return errValue(engerrors.ErrSyntax)
	}
	n, err := rt.ops.XTrim(ctx, sess.DB, string(args[0]), *spec)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdXDel(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ids := make([]datatype.EntryID, 0, len(args)-1)
	for _, a := range args[1:] {
		id, err := datatype.ParseEntryID(string(a))
		if err != nil {
			return errValue(err)
		}
		ids = append(ids, id)
	}
	n, err := rt.ops.XDel(ctx, sess.DB, string(args[0]), ids)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

// cmdXRead implements XREAD, including BLOCK: if the first pass finds
// nothing on any stream it waits on the NotificationBus (spec.md §4.10),
// the same wake primitive BLPOP/BRPOP use in blocking.go.
func cmdXRead(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	keys, afterIDs, count, blockMs, err := parseXReadArgs(rt, ctx, sess, args)
	if err != nil {
		return errValue(err)
	}

	var deadline time.Time
	if blockMs > 0 {
		deadline = time.Now().Add(time.Duration(blockMs) * time.Millisecond)
	}

	for {
		var out []resp.Value
		for i, key := range keys {
			entries, err := rt.ops.XRead(ctx, sess.DB, key, afterIDs[i], count)
			if err != nil {
				return errValue(err)
			}
			if len(entries) == 0 {
				continue
			}
			out = append(out, resp.Array(resp.Bulk([]byte(key)), streamEntriesValue(entries)))
			afterIDs[i] = entries[len(entries)-1].ID
		}
		if len(out) > 0 {
			return resp.Array(out...)
		}
		if blockMs < 0 {
			return resp.NullArray()
		}
		woke, err := waitForAny(ctx, rt, sess.DB, keys, deadline)
		if err != nil {
			return errValue(err)
		}
		if !woke {
			return resp.NullArray()
		}
	}
}

// parseXReadArgs returns keys/starting-ids/count plus blockMs: -1 if BLOCK
// was not given (single-pass, no wait), 0 for BLOCK 0 (wait forever), or
// the requested millisecond timeout.
func parseXReadArgs(rt *Router, ctx context.Context, sess *session.Session, args [][]byte) ([]string, []datatype.EntryID, int, int64, error) {
	count := -1
	blockMs := int64(-1)
	i := 0
	for i < len(args) {
		switch toUpper(args[i]) {
		case "COUNT":
			n, err := parseIntArg(args[i+1])
			if err != nil {
				return nil, nil, 0, 0, err
			}
			count = n
			i += 2
		case "BLOCK":
			n, err := parseInt(args[i+1])
			if err != nil {
				return nil, nil, 0, 0, err
			}
			blockMs = n
			i += 2
		case "STREAMS":
			i++
			goto streams
		default:
			return nil, nil, 0, 0, engerrors.ErrSyntax
		}
	}
streams:
	rest := args[i:]
	if len(rest)%2 != 0 {
		return nil, nil, 0, 0, engerrors.ErrSyntax
	}
	n := len(rest) / 2
	keys := make([]string, n)
	ids := make([]datatype.EntryID, n)
	for j := 0; j < n; j++ {
		keys[j] = string(rest[j])
		idTok := string(rest[n+j])
		if idTok == "$" {
			last, err := rt.ops.XLast(ctx, sess.DB, keys[j])
			if err != nil {
				return nil, nil, 0, 0, err
			}
			ids[j] = last
			continue
		}
		id, err := datatype.ParseEntryID(idTok)
		if err != nil {
			return nil, nil, 0, 0, err
		}
		ids[j] = id
	}
	return keys, ids, count, blockMs, nil
}
