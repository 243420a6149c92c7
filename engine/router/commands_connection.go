// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"context"

	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/engine/session"
	"github.com/redlite-io/redlite/server/resp"
)

func connectionCommands() map[string]commandSpec {
	return map[string]commandSpec{
		"PING": {name: "PING", minArgs: 0, mode: modeSubscribeOK, fn: cmdPing},
		"ECHO": {name: "ECHO", minArgs: 1, mode: modeAny, fn: cmdEcho},
		"AUTH": {name: "AUTH", minArgs: 1, mode: modeAny, fn: cmdAuth},
		"SELECT": {name: "SELECT", minArgs: 1, mode: modeNormalOnly, fn: cmdSelect},
		"QUIT": {name: "QUIT", minArgs: 0, mode: modeSubscribeOK, fn: cmdQuit},
	}
}

func cmdPing(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if len(args) == 0 {
		return resp.Simple("PONG")
	}
	return resp.Bulk(args[0])
}

func cmdEcho(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return resp.Bulk(args[0])
}

func cmdAuth(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	if !rt.gate.Required() {
		return errValue(engerrors.New(engerrors.CategoryAuth, "ERR", "Client sent AUTH, but no password is set"))
	}
	if !rt.gate.Check(string(args[0])) {
		return errValue(engerrors.ErrWrongPass)
	}
	sess.Authenticated = true
	return okValue()
}

func cmdSelect(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	n, err := parseIntArg(args[0])
	if err != nil {
		return errValue(err)
	}
	sess.DB = n
	return okValue()
}

func cmdQuit(ctx context.Context, rt *Router, sess *session.Session, args [][]byte) resp.Value {
	return okValue()
}
