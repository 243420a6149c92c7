// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
	"github.com/redlite-io/redlite/storage"
)

func zsetCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"ZADD":             {name: "ZADD", minArgs: 3, mode: modeAny, fn: cmdZAdd},
		"ZREM":             {name: "ZREM", minArgs: 2, mode: modeAny, fn: cmdZRem},
		"ZSCORE":           {name: "ZSCORE", minArgs: 2, mode: modeAny, fn: cmdZScore},
		"ZRANK":            {name: "ZRANK", minArgs: 2, mode: modeAny, fn: cmdZRank},
		"ZREVRANK":         {name: "ZREVRANK", minArgs: 2, mode: modeAny, fn: cmdZRevRank},
		"ZCARD":            {name: "ZCARD", minArgs: 1, mode: modeAny, fn: cmdZCard},
		"ZRANGE":           {name: "ZRANGE", minArgs: 3, mode: modeAny, fn: cmdZRange},
		"ZREVRANGE":        {name: "ZREVRANGE", minArgs: 3, mode: modeAny, fn: cmdZRevRange},
		"ZRANGEBYSCORE":    {name: "ZRANGEBYSCORE", minArgs: 3, mode: modeAny, fn: cmdZRangeByScore},
		"ZCOUNT":           {name: "ZCOUNT", minArgs: 3, mode: modeAny, fn: cmdZCount},
		"ZINCRBY":          {name: "ZINCRBY", minArgs: 3, mode: modeAny, fn: cmdZIncrBy},
		"ZREMRANGEBYRANK":  {name: "ZREMRANGEBYRANK", minArgs: 3, mode: modeAny, fn: cmdZRemRangeByRank},
		"ZREMRANGEBYSCORE": {name: "ZREMRANGEBYSCORE", minArgs: 3, mode: modeAny, fn: cmdZRemRangeByScore},
	}
}

func cmdZAdd(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	rest := args[1:]
	if len(rest)%2 != 0 {
		return errValue(engerrors.ErrSyntax)
	}
	members := make([]storage.ZMember, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		score, err := parseFloat(rest[i])
		if err != nil {
			return errValue(err)
		}
		members = append(members, storage.ZMember{Member: rest[i+1], Score: score})
	}
	n, err := rt.ops.ZAdd(ctx, sess.DB, string(args[0]), members)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdZRem(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.ZRem(ctx, sess.DB, string(args[0]), args[1:])
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdZScore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	score, err := rt.ops.ZScore(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.NullBulk()
		}
		return errValue(err)
	}
	return resp.Bulk([]byte(formatFloat(score)))
}

func cmdZRank(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	rank, err := rt.ops.ZRank(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.NullBulk()
		}
		return errValue(err)
	}
	return intValue(rank)
}

func cmdZRevRank(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	rank, err := rt.ops.ZRevRank(ctx, sess.DB, string(args[0]), args[1])
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.NullBulk()
		}
		return errValue(err)
	}
	return intValue(rank)
}

func cmdZCard(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.ops.ZCard(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func withScoresFlag(args [][]byte) bool {
	return len(args) > 0 && toUpper(args[len(args)-1]) == "WITHSCORES"
}

func cmdZRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	withScores := withScoresFlag(args[3:])
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	stop, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	out, err := rt.ops.ZRange(ctx, sess.DB, string(args[0]), start, stop)
	if err != nil {
		return errValue(err)
	}
	return zmembersValue(out, withScores)
}

func cmdZRevRange(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	withScores := withScoresFlag(args[3:])
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	stop, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	out, err := rt.ops.ZRevRange(ctx, sess.DB, string(args[0]), start, stop)
	if err != nil {
		return errValue(err)
	}
	return zmembersValue(out, withScores)
}

func cmdZRangeByScore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	min, err := datatype.ParseScoreBound(string(args[1]))
	if err != nil {
		return errValue(err)
	}
	max, err := datatype.ParseScoreBound(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	withScores := false
	offset, count := 0, -1
	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch toUpper(rest[i]) {
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			if i+2 >= len(rest) {
				return errValue(engerrors.ErrSyntax)
			}
			offset, err = parseIntArg(rest[i+1])
			if err != nil {
				return errValue(err)
			}
			count, err = parseIntArg(rest[i+2])
			if err != nil {
				return errValue(err)
			}
			i += 2
		}
	}
	out, err := rt.ops.ZRangeByScore(ctx, sess.DB, string(args[0]), min, max, offset, count)
	if err != nil {
		return errValue(err)
	}
	return zmembersValue(out, withScores)
}

func cmdZCount(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	min, err := datatype.ParseScoreBound(string(args[1]))
	if err != nil {
		return errValue(err)
	}
	max, err := datatype.ParseScoreBound(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.ZCount(ctx, sess.DB, string(args[0]), min, max)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdZIncrBy(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	delta, err := parseFloat(args[1])
	if err != nil {
		return errValue(err)
	}
	score, err := rt.ops.ZIncrBy(ctx, sess.DB, string(args[0]), delta, args[2])
	if err != nil {
		return errValue(err)
	}
	return resp.Bulk([]byte(formatFloat(score)))
}

func cmdZRemRangeByRank(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	start, err := parseIntArg(args[1])
	if err != nil {
		return errValue(err)
	}
	stop, err := parseIntArg(args[2])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.ZRemRangeByRank(ctx, sess.DB, string(args[0]), start, stop)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdZRemRangeByScore(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	min, err := datatype.ParseScoreBound(string(args[1]))
	if err != nil {
		return errValue(err)
	}
	max, err := datatype.ParseScoreBound(string(args[2]))
	if err != nil {
		return errValue(err)
	}
	n, err := rt.ops.ZRemRangeByScore(ctx, sess.DB, string(args[0]), min, max)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}
