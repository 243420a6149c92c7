// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package router

// buildCommandTable merges every command family's registration map into
// the single name->commandSpec table Dispatch consults. Each family lives
// in its own commands_*.go file, mirroring how engine/datatype splits Ops
// methods by data type across strings.go/hashes.go/lists.go/etc.
func buildCommandTable() map[string]commandSpec {
	families := []map[string]commandSpec{
		connectionCommands(),
		genericCommands(),
		stringCommands(),
		hashCommands(),
		listCommands(),
		setCommands(),
		zsetCommands(),
		streamCommands(),
		groupCommands(),
		txCommands(),
		pubsubCommands(),
		historyCommands(),
		blockingCommands(),
	}

	table := make(map[string]commandSpec)
	for _, family := range families {
		for name, spec := range family {
			table[name] = spec
		}
	}
	return table
}
