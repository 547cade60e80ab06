// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of bureau-console.
//
// Three variables are injected at build time via -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// When they are not injected, the VCS stamp the go command embeds
// (vcs.revision, vcs.modified, vcs.time) fills them in, so a plain
// go build or go install still reports its commit. [Version] is set
// by hand for releases.
package version
