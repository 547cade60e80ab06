// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads bureau-console configuration.
//
// Configuration comes from a single file named by the --config flag
// or the BUREAU_CONSOLE_CONFIG environment variable, in that order.
// When neither is set, [Default] is used as is. There is no search
// path and no per-field environment override: the same invocation
// always reads the same configuration.
//
// Files ending in .json or .jsonc are JSON with // and /* */ comments
// and trailing commas allowed. Anything else is YAML.
//
// ${HOME} and ${VAR:-default} patterns are expanded in path fields
// (server.directory, log.file, snapshot.path) after loading.
//
// Durations are stored as strings ("16ms", "30s") so the file stays
// readable. [Config.Validate] checks them; accessor methods such as
// [SyncConfig.Flush] return the parsed value, or zero to mean "use the
// engine default".
//
// This package depends on no other console packages.
package config
