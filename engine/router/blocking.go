// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"
	"reflect"
	"time"

	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func blockingCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"BLPOP": {name: "BLPOP", minArgs: 2, mode: modeBlockingForbidden, fn: cmdBLPop},
		"BRPOP": {name: "BRPOP", minArgs: 2, mode: modeBlockingForbidden, fn: cmdBRPop},
	}
}

func cmdBLPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return blockingPop(ctx, rt, sess, args, true)
}

func cmdBRPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return blockingPop(ctx, rt, sess, args, false)
}

// blockingPop implements BLPOP/BRPOP (spec.md §4.10): try every key once in
// order, and if all are empty, wait on a NotificationBus wake for any of
// them until timeout (0 = wait forever) or ctx is cancelled.
func blockingPop(ctx context.Context, rt *Router, sess *session.Session, args [][]byte, fromHead bool) resp.Value {
	keys := toStrings(args[:len(args)-1])
	timeoutSecs, err := parseFloat(args[len(args)-1])
	if err != nil {
		return errValue(err)
	}

	var deadline time.Time
	if timeoutSecs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutSecs * float64(time.Second)))
	}

	for {
		for _, key := range keys {
			var out [][]byte
			var err error
			if fromHead {
				out, err = rt.ops.LPop(ctx, sess.DB, key, 1)
			} else {
				out, err = rt.ops.RPop(ctx, sess.DB, key, 1)
			}
			if err != nil {
				return errValue(err)
			}
			if len(out) > 0 {
				return resp.Array(resp.Bulk([]byte(key)), resp.Bulk(out[0]))
			}
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

// waitForAny blocks until NotifyKey fires for any of keys, ctx is done, or
// deadline passes (zero deadline waits forever). It returns false on
// timeout, true otherwise (spurious wakeups are fine; the caller re-checks).
func waitForAny(ctx context.Context, rt *Router, db int, keys []string, deadline time.Time) (bool, error) {
	if rt.embedded {
		return false, engerrors.ErrUnsupportedInEmbedded
	}

	cases := make([]reflect.SelectCase, 0, len(keys)+2)
	cancels := make([]func(), 0, len(keys))
	for _, key := range keys {
		ch, cancel, err := rt.notify.SubscribeKey(db, key)
		if err != nil {
			for _, c := range cancels {
				c()
			}
			return false, err
		}
		cancels = append(cancels, cancel)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
	}
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	ctxCase := len(cases) - 1

	var timer *time.Timer
	timeoutCase := -1
	if !deadline.IsZero() {
		timer = time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
		timeoutCase = len(cases) - 1
	}

	chosen, _, _ := reflect.Select(cases)
	switch chosen {
	case ctxCase:
		return false, ctx.Err()
	case timeoutCase:
		return false, nil
	default:
		return true, nil
	}
}
