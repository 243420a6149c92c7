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

// Package glob implements the shell-style pattern matching Redis uses
// for KEYS, HistorySubsystem's LIST, and NotificationBus's pattern
// subscriptions, delegating to path.Match: '*' matches any run of
// characters other than '/', '?' matches exactly one character other
// than '/', and '[...]' matches a character class. A '/' in a name is
// matched only where the pattern has a '/' at that place.
package glob

import "path"

// Match reports whether name satisfies pattern. A malformed pattern
// (per path.ErrBadPattern) is treated as matching nothing.
func Match(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}
