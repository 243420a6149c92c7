// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/server/resp"
)

func hashCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"HSET":         {name: "HSET", minArgs: 3, mode: modeAny, fn: cmdHSet},
		"HSETNX":       {name: "HSETNX", minArgs: 3, mode: modeAny, fn: cmdHSetNX},
		"HGET":         {name: "HGET", minArgs: 2, mode: modeAny, fn: cmdHGet},
		"HMGET":        {name: "HMGET", minArgs: 2, mode: modeAny, fn: cmdHMGet},
		"HGETALL":      {name: "HGETALL", minArgs: 1, mode: modeAny, fn: cmdHGetAll},
		"HDEL":         {name: "HDEL", minArgs: 2, mode: modeAny, fn: cmdHDel},
		"HEXISTS":      {name: "HEXISTS", minArgs: 2, mode: modeAny, fn: cmdHExists},
		"HKEYS":        {name: "HKEYS", minArgs: 1, mode: modeAny, fn: cmdHKeys},
		"HVALS":        {name: "HVALS", minArgs: 1, mode: modeAny, fn: cmdHVals},
		"HLEN":         {name: "HLEN", minArgs: 1, mode: modeAny, fn: cmdHLen},
		"HINCRBY":      {name: "HINCRBY", minArgs: 3, mode: modeAny, fn: cmdHIncrBy},
		"HINCRBYFLOAT": {name: "HINCRBYFLOAT", minArgs: 3, mode: modeAny, fn: cmdHIncrByFloat},
	}
}

func cmdHSet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args[1:])%2 != 0 {
		return errValue(wrongArgs())
	}
	fields := make(map[string][]byte, len(args[1:])/2)
	for i := 1; i < len(args); i += 2 {
		fields[string(args[i])] = args[i+1]
	}
	n, err := rt.ops.HSet(ctx, sess.DB, string(args[0]), fields)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdHSetNX(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.HSetNX(ctx, sess.DB, string(args[0]), string(args[1]), args[2])
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdHGet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	v, err := rt.ops.HGet(ctx, sess.DB, string(args[0]), string(args[1]))
	return bulkValue(v, err)
}

func cmdHMGet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	vals, err := rt.ops.HMGet(ctx, sess.DB, string(args[0]), toStrings(args[1:]))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(vals)
}

func cmdHGetAll(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	all, err := rt.ops.HGetAll(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	var vals []resp.Value
	for f, v := range all {
		vals = append(vals, resp.Bulk([]byte(f)), resp.Bulk(v))
	}
	return resp.Array(vals...)
}

func cmdHDel(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.HDel(ctx, sess.DB, string(args[0]), toStrings(args[1:]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdHExists(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.HExists(ctx, sess.DB, string(args[0]), string(args[1]))
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdHKeys(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	keys, err := rt.ops.HKeys(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return stringArrayValue(keys)
}

func cmdHVals(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	vals, err := rt.ops.HVals(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(vals)
}

func cmdHLen(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.HLen(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdHIncrBy(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseInt(args[2])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.HIncrBy(ctx, sess.DB, string(args[0]), string(args[1]), delta)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdHIncrByFloat(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseFloat(args[2])
	if err != nil {
		return errValue(err)
	}
	f, err := rt.ops.HIncrByFloat(ctx, sess.DB, string(args[0]), string(args[1]), delta)
	if err != nil {
		return errValue(err)
	}
	return resp.Bulk([]byte(formatFloat(f)))
}
