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

package session

import "errors"

var (
	// ErrSessionNotFound is returned when a client id has no registered
	// Session, e.g. a late CLIENT LIST race with a closed connection.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrSessionExists is returned by Manager.Register when a client id is
	// already registered.
	ErrSessionExists = errors.New("session: already exists")

	// ErrNotInMulti is returned when EXEC or DISCARD is issued outside
	// MULTI.
	ErrNotInMulti = errors.New("session: not in a transaction")

	// ErrAlreadyInMulti is returned when MULTI is issued while a
	// transaction is already open.
	ErrAlreadyInMulti = errors.New("session: MULTI calls can not be nested")
)
