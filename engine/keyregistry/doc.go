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

// Package keyregistry is the source of truth for key existence, type,
// TTL, and optimistic-lock version (spec.md §4.2). Every DataTypeOps
// command resolves its key through Registry.GetTyped or Registry.Ensure
// before touching a type table, so TTL expiry and WATCH invalidation are
// enforced uniformly no matter which command runs.
//
// Expiry is lazy: a key past its deadline is deleted the next time it is
// looked up, not on a fixed schedule. engine/ttl additionally sweeps
// expired keys proactively so idle keys do not linger until read.
package keyregistry
