// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func listCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"LPUSH":   {name: "LPUSH", minArgs: 2, mode: modeAny, fn: cmdLPush},
		"RPUSH":   {name: "RPUSH", minArgs: 2, mode: modeAny, fn: cmdRPush},
		"LPOP":    {name: "LPOP", minArgs: 1, mode: modeAny, fn: cmdLPop},
		"RPOP":    {name: "RPOP", minArgs: 1, mode: modeAny, fn: cmdRPop},
		"LLEN":    {name: "LLEN", minArgs: 1, mode: modeAny, fn: cmdLLen},
		"LRANGE":  {name: "LRANGE", minArgs: 3, mode: modeAny, fn: cmdLRange},
		"LINDEX":  {name: "LINDEX", minArgs: 2, mode: modeAny, fn: cmdLIndex},
		"LSET":    {name: "LSET", minArgs: 3, mode: modeAny, fn: cmdLSet},
		"LTRIM":   {name: "LTRIM", minArgs: 3, mode: modeAny, fn: cmdLTrim},
		"LINSERT": {name: "LINSERT", minArgs: 4, mode: modeAny, fn: cmdLInsert},
		"LREM":    {name: "LREM", minArgs: 3, mode: modeAny, fn: cmdLRem},
	}
}

func cmdLPush(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.LPush(ctx, sess.DB, string(args[0]), args[1:])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdRPush(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.RPush(ctx, sess.DB, string(args[0]), args[1:])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdLPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return listPop(ctx, rt, sess, args, true)
}

func cmdRPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return listPop(ctx, rt, sess, args, false)
}

func listPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte, fromHead bool) resp.Value {
	count := -1
	explicitCount := len(args) > 1
	if explicitCount {
		n, err := parseIntArg(args[1])
		if err != nil {
			return errValue(err)
		}
		count = n
	}
	var out [][]byte
	var err error
	if fromHead {
		out, err = rt.ops.LPop(ctx, sess.DB, string(args[0]), count)
	} else {
		out, err = rt.ops.RPop(ctx, sess.DB, string(args[0]), count)
	}
	if err != nil {
		return errValue(err)
	}
	if out == nil {
		if explicitCount {
			return resp.NullArray()
		}
		return resp.NullBulk()
	}
	if explicitCount {
		return bulkArrayValue(out)
	}
	return resp.Bulk(out[0])
}

func cmdLLen(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.LLen(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdLRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	stop, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	out, err := rt.ops.LRange(ctx, sess.DB, string(args[0]), start, stop)
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(out)
}

func cmdLIndex(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	idx, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	v, err := rt.ops.LIndex(ctx, sess.DB, string(args[0]), idx)
	return bulkValue(v, err)
}

func cmdLSet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	idx, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	if err := rt.ops.LSet(ctx, sess.DB, string(args[0]), idx, args[2]); err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdLTrim(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	stop, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	if err := rt.ops.LTrim(ctx, sess.DB, string(args[0]), start, stop); err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdLInsert(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	var before bool
	switch toUpper(args[1]) {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return errValue(engerrors.ErrSyntax)
	}
	n, err := rt.ops.LInsert(ctx, sess.DB, string(args[0]), before, args[2], args[3])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdLRem(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	count, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.LRem(ctx, sess.DB, string(args[0]), count, args[2])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}
