// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/server/resp"
)

func setCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"SADD":        {name: "SADD", minArgs: 2, mode: modeAny, fn: cmdSAdd},
		"SREM":        {name: "SREM", minArgs: 2, mode: modeAny, fn: cmdSRem},
		"SMEMBERS":    {name: "SMEMBERS", minArgs: 1, mode: modeAny, fn: cmdSMembers},
		"SISMEMBER":   {name: "SISMEMBER", minArgs: 2, mode: modeAny, fn: cmdSIsMember},
		"SCARD":       {name: "SCARD", minArgs: 1, mode: modeAny, fn: cmdSCard},
		"SPOP":        {name: "SPOP", minArgs: 1, mode: modeAny, fn: cmdSPop},
		"SRANDMEMBER": {name: "SRANDMEMBER", minArgs: 1, mode: modeAny, fn: cmdSRandMember},
		"SMOVE":       {name: "SMOVE", minArgs: 3, mode: modeAny, fn: cmdSMove},
		"SDIFF":       {name: "SDIFF", minArgs: 1, mode: modeAny, fn: cmdSDiff},
		"SINTER":      {name: "SINTER", minArgs: 1, mode: modeAny, fn: cmdSInter},
		"SUNION":      {name: "SUNION", minArgs: 1, mode: modeAny, fn: cmdSUnion},
		"SDIFFSTORE":  {name: "SDIFFSTORE", minArgs: 2, mode: modeAny, fn: cmdSDiffStore},
		"SINTERSTORE": {name: "SINTERSTORE", minArgs: 2, mode: modeAny, fn: cmdSInterStore},
		"SUNIONSTORE": {name: "SUNIONSTORE", minArgs: 2, mode: modeAny, fn: cmdSUnionStore},
	}
}

func cmdSAdd(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SAdd(ctx, sess.DB, string(args[0]), args[1:])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdSRem(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SRem(ctx, sess.DB, string(args[0]), args[1:])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdSMembers(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	out, err := rt.ops.SMembers(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(out)
}

func cmdSIsMember(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.SIsMember(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdSCard(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SCard(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdSPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	count := 1
	explicitCount := len(args) > 1
	if explicitCount {
		n, err := parseIntArg(args[1])
		if err != nil {
			return errValue(err)
		}
		count = n
	}
	out, err := rt.ops.SPop(ctx, sess.DB, string(args[0]), count)
	if err != nil {
		return errValue(err)
	}
	if explicitCount {
		return bulkArrayValue(out)
	}
	if len(out) == 0 {
		return resp.NullBulk()
	}
	return resp.Bulk(out[0])
}

func cmdSRandMember(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	count := 1
	explicitCount := len(args) > 1
	if explicitCount {
		n, err := parseIntArg(args[1])
		if err != nil {
			return errValue(err)
		}
		count = n
	}
	out, err := rt.ops.SRandMember(ctx, sess.DB, string(args[0]), count)
	if err != nil {
		return errValue(err)
	}
	if explicitCount {
		return bulkArrayValue(out)
	}
	if len(out) == 0 {
		return resp.NullBulk()
	}
	return resp.Bulk(out[0])
}

func cmdSMove(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.SMove(ctx, sess.DB, string(args[0]), string(args[1]), args[2])
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdSDiff(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	out, err := rt.ops.SDiff(ctx, sess.DB, toStrings(args))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(out)
}

func cmdSInter(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	out, err := rt.ops.SInter(ctx, sess.DB, toStrings(args))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(out)
}

func cmdSUnion(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	out, err := rt.ops.SUnion(ctx, sess.DB, toStrings(args))
	if err != nil {
		return errValue(err)
	}
	return bulkArrayValue(out)
}

func cmdSDiffStore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SDiffStore(ctx, sess.DB, string(args[0]), toStrings(args[1:]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdSInterStore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SInterStore(ctx, sess.DB, string(args[0]), toStrings(args[1:]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdSUnionStore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.SUnionStore(ctx, sess.DB, string(args[0]), toStrings(args[1:]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}
