// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

import (
	"strconv"
	"strings"

	"github.com/redlite-io/redlite/engine/datatype"
	engerrors "github.com/redlite-io/redlite/pkg/errors"
	"github.com/redlite-io/redlite/server/resp"
	"github.com/redlite-io/redlite/storage"
)

func okValue() resp.Value { return resp.Simple("OK") }

func intValue(n int64) resp.Value { return resp.Int(n) }

func boolInt(ok bool) resp.Value {
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func bulkValue(b []byte, err error) resp.Value {
	if err != nil {
		if engerrors.IsNotFound(err) {
			return resp.NullBulk()
		}
		return errValue(err)
	}
	return resp.Bulk(b)
}

func bulkArrayValue(items [][]byte) resp.Value {
	vals := make([]resp.Value, len(items))
	for i, b := range items {
		vals[i] = resp.Bulk(b)
	}
	return resp.Array(vals...)
}

func stringArrayValue(items []string) resp.Value {
	vals := make([]resp.Value, len(items))
	for i, s := range items {
		vals[i] = resp.Bulk([]byte(s))
	}
	return resp.Array(vals...)
}

// zmembersValue renders ZRANGE-family replies, optionally interleaving
// scores as formatted bulk strings (WITHSCORES).
func zmembersValue(members []storage.ZMember, withScores bool) resp.Value {
	var vals []resp.Value
	for _, m := range members {
		vals = append(vals, resp.Bulk(m.Member))
		if withScores {
			vals = append(vals, resp.Bulk([]byte(formatFloat(m.Score))))
		}
	}
	return resp.Array(vals...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, engerrors.ErrNotInteger
	}
	return n, nil
}

func parseIntArg(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, engerrors.ErrNotInteger
	}
	return n, nil
}

func parseFloat(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, engerrors.ErrNotFloat
	}
	return f, nil
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func toUpper(b []byte) string { return strings.ToUpper(string(b)) }

func wrongArgs() error {
	return engerrors.New(engerrors.CategorySyntax, "SYNTAX", "wrong number of arguments")
}

// setOptionsFromArgs parses SET's trailing option tokens (NX/XX/EX/PX/
// KEEPTTL), resolving EX/PX into an absolute deadline against nowMs.
func setOptionsFromArgs(args [][]byte, nowMs int64) (datatype.SetOptions, error) {
	var opts datatype.SetOptions
	for i := 0; i < len(args); i++ {
		switch toUpper(args[i]) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "KEEPTTL":
			opts.KeepTTL = true
		case "EX":
			i++
			if i >= len(args) {
				return opts, engerrors.ErrSyntax
			}
			secs, err := parseInt(args[i])
			if err != nil {
				return opts, err
			}
			opts.ExpireAtMs = nowMs + secs*1000
		case "PX":
			i++
			if i >= len(args) {
				return opts, engerrors.ErrSyntax
			}
			ms, err := parseInt(args[i])
			if err != nil {
				return opts, err
			}
			opts.ExpireAtMs = nowMs + ms
		default:
			return opts, engerrors.ErrSyntax
		}
	}
	return opts, nil
}
