// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/server/resp"
)

func stringCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"GET":         {name: "GET", minArgs: 1, mode: modeAny, fn: cmdGet},
		"SET":         {name: "SET", minArgs: 2, mode: modeAny, fn: cmdSet},
		"SETNX":       {name: "SETNX", minArgs: 2, mode: modeAny, fn: cmdSetNX},
		"SETEX":       {name: "SETEX", minArgs: 3, mode: modeAny, fn: cmdSetEX},
		"PSETEX":      {name: "PSETEX", minArgs: 3, mode: modeAny, fn: cmdPSetEX},
		"MGET":        {name: "MGET", minArgs: 1, mode: modeAny, fn: cmdMGet},
		"MSET":        {name: "MSET", minArgs: 2, mode: modeAny, fn: cmdMSet},
		"APPEND":      {name: "APPEND", minArgs: 2, mode: modeAny, fn: cmdAppend},
		"STRLEN":      {name: "STRLEN", minArgs: 1, mode: modeAny, fn: cmdStrLen},
		"INCR":        {name: "INCR", minArgs: 1, mode: modeAny, fn: cmdIncr},
		"DECR":        {name: "DECR", minArgs: 1, mode: modeAny, fn: cmdDecr},
		"INCRBY":      {name: "INCRBY", minArgs: 2, mode: modeAny, fn: cmdIncrBy},
		"DECRBY":      {name: "DECRBY", minArgs: 2, mode: modeAny, fn: cmdDecrBy},
		"INCRBYFLOAT": {name: "INCRBYFLOAT", minArgs: 2, mode: modeAny, fn: cmdIncrByFloat},
		"GETRANGE":    {name: "GETRANGE", minArgs: 3, mode: modeAny, fn: cmdGetRange},
		"SETRANGE":    {name: "SETRANGE", minArgs: 3, mode: modeAny, fn: cmdSetRange},
		"GETSET":      {name: "GETSET", minArgs: 2, mode: modeAny, fn: cmdGetSet},
	}
}

func cmdGet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	v, err := rt.ops.Get(ctx, sess.DB, string(args[0]))
	return bulkValue(v, err)
}

func cmdSet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	opts, err := setOptionsFromArgs(args[2:], rt.now())
	if err != nil {
		return errValue(err)
	}
	ok, err := rt.ops.Set(ctx, sess.DB, string(args[0]), args[1], opts)
	if err != nil {
		return errValue(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return okValue()
}

func cmdSetNX(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.SetNX(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdSetEX(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	secs, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	_, err = rt.ops.Set(ctx, sess.DB, string(args[0]), args[2], datatype.SetOptions{ExpireAtMs: rt.now() + secs*1000})
	if err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdPSetEX(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ms, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	_, err = rt.ops.Set(ctx, sess.DB, string(args[0]), args[2], datatype.SetOptions{ExpireAtMs: rt.now() + ms})
	if err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdMGet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	vals, err := rt.ops.MGet(ctx, sess.DB, toStrings(args))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(vals)
}

func cmdMSet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args)%2 != 0 {
		return errValue(wrongArgs())
	}
	pairs := make(map[string][]byte, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}
	if err := rt.ops.MSet(ctx, sess.DB, pairs); err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdAppend(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.Append(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdStrLen(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.StrLen(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdIncr(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.IncrBy(ctx, sess.DB, string(args[0]), 1)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdDecr(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.IncrBy(ctx, sess.DB, string(args[0]), -1)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdIncrBy(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.IncrBy(ctx, sess.DB, string(args[0]), delta)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdDecrBy(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.IncrBy(ctx, sess.DB, string(args[0]), -delta)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdIncrByFloat(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseFloat(args[1])
	if err != nil {
		return errValue(err)
	}
	f, err := rt.ops.IncrByFloat(ctx, sess.DB, string(args[0]), delta)
	if err != nil {
		return errValue(err)
	}
	return resp.Bulk([]byte(formatFloat(f)))
}

func cmdGetRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	end, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	v, err := rt.ops.GetRange(ctx, sess.DB, string(args[0]), start, end)
	if err != nil {
		return errValue(err)
	}
	return resp.Bulk(v)
}

func cmdSetRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	offset, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.SetRange(ctx, sess.DB, string(args[0]), offset, args[2])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdGetSet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	prev, err := rt.ops.GetSet(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		return errValue(err)
	}
	return resp.Bulk(prev)
}
