// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package auth implements the AUTH gate described by spec.md §4.8's
// Authenticating mode: a single configured password, checked with a
// constant-time bcrypt comparison so a timing side channel never leaks
// how much of a guessed password was correct.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Gate holds the server's configured credential. A zero-value Gate (no
// hash set) means auth is disabled: every Check call succeeds.
type Gate struct {
	hash []byte
}

// NewGate hashes password with bcrypt and returns a Gate that requires
// it. An empty password disables auth (spec.md §6: "if absent, auth is
// disabled").
func NewGate(password string) (*Gate, error) {
	if password == "" {
		return &Gate{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Gate{hash: hash}, nil
}

// Required reports whether a password is configured.
func (g *Gate) Required() bool {
	return g != nil && len(g.hash) > 0
}

// Check reports whether password satisfies the configured credential.
// It always returns true when auth is disabled.
func (g *Gate) Check(password string) bool {
	if !g.Required() {
		return true
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}
