// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], [RequireClosed] and
// [RequireNoReceive] encapsulate the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls. These are the only place in the test
// suite where real wall-clock timeouts are used: everything else runs
// on lib/clock's fake clock.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, for example session and message ids that must not
// collide across subtests sharing a server.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
