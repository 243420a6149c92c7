// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"
	"strings"
	"time"

	"github.com/redlite-io/redlite/engine/history"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func historyCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"HISTORY": {name: "HISTORY", minArgs: 1, mode: modeAny, fn: cmdHistory},
	}
}

var errNoHistory = engerrors.New(engerrors.CategorySession, "ERR", "HistorySubsystem is not configured")

func cmdHistory(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if rt.history == nil {
		return errValue(errNoHistory)
	}
	switch toUpper(args[0]) {
	case "GETAT":
		return cmdHistoryGetAt(ctx, rt, sess, args[1:])
	case "GET":
		return cmdHistoryGet(ctx, rt, sess, args[1:])
	case "LIST":
		return cmdHistoryList(ctx, rt, sess, args[1:])
	case "STATS":
		return cmdHistoryStats(ctx, rt, sess, args[1:])
	case "CLEAR":
		return cmdHistoryClear(ctx, rt, sess, args[1:])
	case "PRUNE":
		return cmdHistoryPrune(ctx, rt, sess, args[1:])
	case "CONFIG":
		return cmdHistoryConfig(ctx, rt, sess, args[1:])
	default:
		return errValue(engerrors.ErrSyntax)
	}
}

func historyEntryValue(e history.Entry) resp.Value {
	return resp.Array(
		resp.Bulk([]byte(e.Name)),
		resp.Bulk([]byte(e.Type)),
		resp.Int(e.Version),
		resp.Bulk([]byte(e.Op)),
		resp.Int(e.TimestampMs),
		resp.Bulk(e.Snapshot),
	)
}

func cmdHistoryGetAt(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 2 {
		return errValue(wrongArgs())
	}
	ts, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	e, err := rt.history.GetAt(ctx, sess.DB, string(args[0]), ts)
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.NullArray()
		}
		return errValue(err)
	}
	return historyEntryValue(*e)
}

func cmdHistoryGet(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 1 {
		return errValue(wrongArgs())
	}
	var opts history.GetOptions
	for i := 1; i < len(args); i++ {
		switch toUpper(args[i]) {
		case "LIMIT":
			i++
			if i >= len(args) {
				return errValue(engerrors.ErrSyntax)
			}
			n, err := parseInt(args[i])
			if err != nil {
				return errValue(err)
			}
			opts.Limit = n
		case "SINCE":
			i++
			if i >= len(args) {
				return errValue(engerrors.ErrSyntax)
			}
			n, err := parseInt(args[i])
			if err != nil {
				return errValue(err)
			}
			opts.Since = n
		case "UNTIL":
			i++
			if i >= len(args) {
				return errValue(engerrors.ErrSyntax)
			}
			n, err := parseInt(args[i])
			if err != nil {
				return errValue(err)
			}
			opts.Until = n
		default:
			return errValue(engerrors.ErrSyntax)
		}
	}
	entries, err := rt.history.Get(ctx, sess.DB, string(args[0]), opts)
	if err != nil {
		return errValue(err)
	}
	out := make([]resp.Value, len(entries))
	for i, e := range entries {
		out[i] = historyEntryValue(e)
	}
	return resp.Array(out...)
}

func cmdHistoryList(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	pattern := "*"
	if len(args) > 0 {
		pattern = string(args[0])
	}
	summaries, err := rt.history.List(ctx, pattern)
	if err != nil {
		return errValue(err)
	}
	out := make([]resp.Value, len(summaries))
	for i, s := range summaries {
		out[i] = resp.Array(resp.Bulk([]byte(s.Name)), resp.Int(int64(s.DB)), resp.Int(s.Count))
	}
	return resp.Array(out...)
}

func cmdHistoryStats(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 1 {
		return errValue(wrongArgs())
	}
	s, err := rt.history.Stats(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return resp.Array(
		resp.Int(s.Count),
		resp.Int(s.OldestMs),
		resp.Int(s.NewestMs),
		resp.Int(s.Bytes),
	)
}

func cmdHistoryClear(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 1 {
		return errValue(wrongArgs())
	}
	var before int64
	if len(args) > 1 {
		n, err := parseInt(args[1])
		if err != nil {
			return errValue(err)
		}
		before = n
	}
	n, err := rt.history.Clear(ctx, sess.DB, string(args[0]), before)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

func cmdHistoryPrune(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 1 {
		return errValue(wrongArgs())
	}
	before, err := parseInt(args[0])
	if err != nil {
		return errValue(err)
	}
	n, err := rt.history.Prune(ctx, before)
	if err != nil {
		return errValue(err)
	}
	return intValue(n)
}

// cmdHistoryConfig implements HISTORY CONFIG SET {KEY key|DB|GLOBAL}
// enabled(0|1) policy(unlimited|age|count) maxAgeSeconds maxCount,
// spec.md §4.5's three-tier opt-in configuration surface.
func cmdHistoryConfig(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) < 1 || toUpper(args[0]) != "SET" {
		return errValue(engerrors.ErrSyntax)
	}
	rest := args[1:]
	if len(rest) < 1 {
		return errValue(wrongArgs())
	}

	var scope, key string
	switch toUpper(rest[0]) {
	case "KEY":
		if len(rest) < 2 {
			return errValue(wrongArgs())
		}
		scope, key = "key", string(rest[1])
		rest = rest[2:]
	case "DB":
		scope = "db"
		rest = rest[1:]
	case "GLOBAL":
		scope = "global"
		rest = rest[1:]
	default:
		return errValue(engerrors.ErrSyntax)
	}
	if len(rest) < 4 {
		return errValue(wrongArgs())
	}
	enabled, err := parseInt(rest[0])
	if err != nil {
		return errValue(err)
	}
	policy := history.Policy(strings.ToLower(string(rest[1])))
	switch policy {
	case history.PolicyUnlimited, history.PolicyByAge, history.PolicyByCount:
	default:
		return errValue(engerrors.ErrSyntax)
	}
	maxAgeSecs, err := parseInt(rest[2])
	if err != nil {
		return errValue(err)
	}
	maxCount, err := parseInt(rest[3])
	if err != nil {
		return errValue(err)
	}
	maxAge := time.Duration(maxAgeSecs) * time.Second

	switch scope {
	case "key":
		err = rt.history.SetKeyConfig(ctx, sess.DB, key, enabled != 0, policy, maxAge, maxCount)
	case "db":
		err = rt.history.SetDBConfig(ctx, sess.DB, enabled != 0, policy, maxAge, maxCount)
	case "global":
		err = rt.history.SetGlobalConfig(ctx, enabled != 0, policy, maxAge, maxCount)
	}
	if err != nil {
		return errValue(err)
	}
	return okValue()
}
