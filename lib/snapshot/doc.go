// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists sync store contents to disk.
//
// A snapshot file is a fixed header followed by the payload:
//
//	offset  size  field
//	0       4     magic "BCSN"
//	4       1     format version (1)
//	5       1     compression tag (0 none, 1 lz4 block, 2 zstd)
//	6       8     uncompressed payload size, big endian
//	14      32    BLAKE3-256 of the uncompressed payload
//	46      ...   payload, compressed per the tag
//
// The payload is a [syncstate.Snapshot] in deterministic CBOR (see
// lib/codec), so the checksum of identical store contents is stable.
// [Read] verifies the size and checksum before decoding; a snapshot
// that fails either check is rejected whole.
//
// When the requested compression does not make the payload smaller,
// [Write] stores it uncompressed and records tag 0.
//
// Restoring a snapshot goes through [syncstate.State.Import], which
// replays the ordinary setters, so derived indices (token totals,
// ownership) are rebuilt rather than trusted from disk.
package snapshot
