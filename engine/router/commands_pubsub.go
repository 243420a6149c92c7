// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	"github.com/redlite-io/redlite/engine/session"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
)

func pubsubCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"SUBSCRIBE":    {name: "SUBSCRIBE", minArgs: 1, mode: modeSubscribeOK, fn: cmdSubscribe},
		"UNSUBSCRIBE":  {name: "UNSUBSCRIBE", minArgs: 0, mode: modeSubscribeOK, fn: cmdUnsubscribe},
		"PSUBSCRIBE":   {name: "PSUBSCRIBE", minArgs: 1, mode: modeSubscribeOK, fn: cmdPSubscribe},
		"PUNSUBSCRIBE": {name: "PUNSUBSCRIBE", minArgs: 0, mode: modeSubscribeOK, fn: cmdPUnsubscribe},
		"PUBLISH":      {name: "PUBLISH", minArgs: 2, mode: modeBlockingForbidden, fn: cmdPublish},
	}
}

// subAckValue builds one ["subscribe"|..., name, count] confirmation frame
// per Redis's push protocol. Dispatch can only return a single resp.Value,
// so SUBSCRIBE/PSUBSCRIBE pack one frame per requested name into an outer
// array; the server's connection writer (server/server.go) unwraps it and
// sends each inner array as its own reply, matching what a real client
// expects to read off the wire.
func subAckValue(kind string, names []string, count int) resp.Value {
	frames := make([]resp.Value, len(names))
	for i, n := range names {
		frames[i] = resp.Array(resp.Bulk([]byte(kind)), resp.Bulk([]byte(n)), resp.Int(int64(count)))
	}
	return resp.Array(frames...)
}

func cmdSubscribe(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if rt.embedded {
		return errValue(engerrors.ErrUnsupportedInEmbedded)
	}
	names := toStrings(args)
	for _, n := range names {
		sess.Subscribe(n)
	}
	return subAckValue("subscribe", names, len(sess.Subscriptions)+len(sess.PatternSubs))
}

func cmdUnsubscribe(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	names := toStrings(args)
	if len(names) == 0 {
		for n := range sess.Subscriptions {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return subAckValue("unsubscribe", []string{""}, 0)
	}
	for _, n := range names {
		sess.Unsubscribe(n)
	}
	return subAckValue("unsubscribe", names, len(sess.Subscriptions)+len(sess.PatternSubs))
}

func cmdPSubscribe(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if rt.embedded {
		return errValue(engerrors.ErrUnsupportedInEmbedded)
	}
	names := toStrings(args)
	for _, n := range names {
		sess.PSubscribe(n)
	}
	return subAckValue("psubscribe", names, len(sess.Subscriptions)+len(sess.PatternSubs))
}

func cmdPUnsubscribe(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	names := toStrings(args)
	if len(names) == 0 {
		for n := range sess.PatternSubs {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return subAckValue("punsubscribe", []string{""}, 0)
	}
	for _, n := range names {
		sess.PUnsubscribe(n)
	}
	return subAckValue("punsubscribe", names, len(sess.Subscriptions)+len(sess.PatternSubs))
}

func cmdPublish(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := rt.notify.Publish(string(args[0]), args[1])
	if err != nil {
		return errValue(err)
	}
	return intValue(int64(n))
}
