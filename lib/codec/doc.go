// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the console's CBOR encoding configuration.
//
// The agent service speaks JSON and the console keeps it that way on
// every external surface (HTTP, SSE, --json output). CBOR is used for
// on-disk store snapshots, where it is compact and deterministic: the
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same logical data always produces identical bytes.
//
//	data, err := codec.Marshal(snapshot)
//	err = codec.Unmarshal(data, &snapshot)
//
// The wire types in lib/agentapi carry only `json` tags. fxamacker/cbor
// reads `json` tags when `cbor` tags are absent, so one tag controls
// field naming and omitempty for both formats. Raw JSON payloads
// (json.RawMessage) encode as CBOR byte strings and come back
// byte-for-byte.
package codec
