// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func txCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"MULTI":   {name: "MULTI", minArgs: 0, mode: modeAny, fn: cmdMulti},
		"EXEC":    {name: "EXEC", minArgs: 0, mode: modeAny, fn: cmdExec},
		"DISCARD": {name: "DISCARD", minArgs: 0, mode: modeAny, fn: cmdDiscard},
		"WATCH":   {name: "WATCH", minArgs: 1, mode: modeAny, fn: cmdWatch},
		"UNWATCH": {name: "UNWATCH", minArgs: 0, mode: modeAny, fn: cmdUnwatch},
	}
}

func cmdMulti(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if err := sess.StartMulti(); err != nil {
		return errValue(err)
	}
	return okValue()
}

func cmdDiscard(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if err := sess.EndMulti(); err != nil {
		return errValue(engerrors.ErrDiscardWithoutMulti)
	}
	sess.ClearWatches()
	return okValue()
}

func cmdWatch(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	for _, a := range args {
		key := string(a)
		v, err := rt.registry.GetVersion(ctx, sess.DB, key)
		if err != nil {
			return errValue(err)
		}
		sess.Watch(sess.DB, key, v)
	}
	return okValue()
}

func cmdUnwatch(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	sess.ClearWatches()
	return okValue()
}

// cmdExec replays the queued commands in order if no watched key changed
// version since WATCH, per spec.md §4.8's optimistic-locking semantics. A
// dirty queue (bad arity/unknown command at queue time) aborts the whole
// transaction with EXECABORT.
func cmdExec(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if !sess.InMulti() {
		return errValue(engerrors.ErrExecWithoutMulti)
	}
	if sess.TxDirty {
		sess.EndMulti()
		sess.ClearWatches()
		return errValue(engerrors.New(engerrors.CategorySession, "EXECABORT", "Transaction discarded because of previous errors."))
	}

	for _, w := range sess.Watched {
		v, err := rt.registry.GetVersion(ctx, w.DB, w.Key)
		if err != nil {
			sess.EndMulti()
			sess.ClearWatches()
			return errValue(err)
		}
		if v != w.Version {
			sess.EndMulti()
			sess.ClearWatches()
			return resp.NullArray()
		}
	}

	queue := sess.TxQueue
	sess.EndMulti()
	sess.ClearWatches()

	results := make([]resp.Value, len(queue))
	for i, qc := range queue {
		spec, ok := rt.commands[qc.Name]
		if !ok {
			results[i] = errValue(engerrors.ErrUnknownCommand)
			continue
		}
		results[i] = spec.fn(ctx, rt, sess, qc.Args)
	}
	return resp.Array(results...)
}
