// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"
	"database/sql"

	"github.com/redlite-io/redlite/engine/glob"
	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func genericCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"DEL":        {name: "DEL", minArgs: 1, mode: modeAny, fn: cmdDel},
		"EXISTS":     {name: "EXISTS", minArgs: 1, mode: modeAny, fn: cmdExists},
		"EXPIRE":     {name: "EXPIRE", minArgs: 2, mode: modeAny, fn: cmdExpire},
		"PEXPIRE":    {name: "PEXPIRE", minArgs: 2, mode: modeAny, fn: cmdPExpire},
		"EXPIREAT":   {name: "EXPIREAT", minArgs: 2, mode: modeAny, fn: cmdExpireAt},
		"PEXPIREAT":  {name: "PEXPIREAT", minArgs: 2, mode: modeAny, fn: cmdPExpireAt},
		"TTL":        {name: "TTL", minArgs: 1, mode: modeAny, fn: cmdTTL},
		"PTTL":       {name: "PTTL", minArgs: 1, mode: modeAny, fn: cmdPTTL},
		"PERSIST":    {name: "PERSIST", minArgs: 1, mode: modeAny, fn: cmdPersist},
		"TYPE":       {name: "TYPE", minArgs: 1, mode: modeAny, fn: cmdType},
		"RENAME":     {name: "RENAME", minArgs: 2, mode: modeAny, fn: cmdRename},
		"RENAMENX":   {name: "RENAMENX", minArgs: 2, mode: modeAny, fn: cmdRenameNX},
		"KEYS":       {name: "KEYS", minArgs: 1, mode: modeAny, fn: cmdKeys},
	}
}

func cmdDel(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	var n int64
	for _, k := range args {
		ok, err := rt.registry.Delete(ctx, sess.DB, string(k))
		if err != nil {
			return errValue(err)
		}
		if ok {
			n++
		}
	}
	return intValue(n)
}

func cmdExists(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	var n int64
	for _, k := range args {
		ok, err := rt.registry.Exists(ctx, sess.DB, string(k))
		if err != nil {
			return errValue(err)
		}
		if ok {
			n++
		}
	}
	return intValue(n)
}

func (rt *Router) expireKey(ctx context.Context, db int, key string, deadlineMs int64) (bool, error) {
	meta, err := rt.registry.GetTyped(ctx, db, key, "")
	if err != nil {
		if engerrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := rt.registry.ApplyExpire(ctx, meta.ID, deadlineMs); err != nil {
		return false, err
	}
	return true, nil
}

func cmdExpire(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	secs, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	ok, err := rt.expireKey(ctx, sess.DB, string(args[0]), rt.now()+secs*1000)
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdPExpire(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ms, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	ok, err := rt.expireKey(ctx, sess.DB, string(args[0]), rt.now()+ms)
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdExpireAt(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	secs, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	ok, err := rt.expireKey(ctx, sess.DB, string(args[0]), secs*1000)
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdPExpireAt(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ms, err := parseInt(args[1])
	if err != nil {
		return errValue(err)
	}
	ok, err := rt.expireKey(ctx, sess.DB, string(args[0]), ms)
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdTTL(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ms, err := rt.registry.GetTTLMillis(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	if ms < 0 {
		return intValue(ms)
	}
	return intValue((ms + 999) / 1000)
}

func cmdPTTL(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ms, err := rt.registry.GetTTLMillis(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return intValue(ms)
}

func cmdPersist(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.registry.Persist(ctx, sess.DB, string(args[0]))
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

func cmdType(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	meta, err := rt.registry.GetTyped(ctx, sess.DB, string(args[0]), "")
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.Simple("none")
		}
		return errValue(err)
	}
	return resp.Simple(string(meta.Type))
}

func cmdRename(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if _, err := rt.ops.Rename(ctx, sess.DB, string(args[0]), string(args[1]), true); err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdRenameNX(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	ok, err := rt.ops.Rename(ctx, sess.DB, string(args[0]), string(args[1]), false)
	if err != nil {
		return errValue(err)
	}
	return boolInt(ok)
}

// cmdKeys scans every registered key in the session's db and filters by
// a Redis-style glob pattern; KEYS is O(n) by design (spec.md Non-goals
// exclude a secondary index for pattern scans).
func cmdKeys(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	pattern := string(args[0])
	var names []string
	err := rt.backend.QueryRows(ctx, `SELECT name FROM keys WHERE db = ?`, []interface{}{sess.DB}, func(rows *sql.Rows) error {
		var n string
		if err := rows.Scan(&n); err != nil {
			return err
		}
		if glob.Match(pattern, n) {
			names = append(names, n)
		}
		return nil
	})
	if err != nil {
		return errValue(engerrors.Wrap(err, "keys"))
	}
	live := names[:0]
	for _, n := range names {
		ok, err := rt.registry.Exists(ctx, sess.DB, n)
		if err != nil {
			return errValue(err)
		}
		if ok {
			live = append(live, n)
		}
	}
	return stringArrayValue(live)
}
