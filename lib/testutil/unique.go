// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing, zero-padded integer, so ids from one prefix
// sort in creation order.
//
//	sessionID := testutil.UniqueID("ses")  // "ses-000001", "ses-000002", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%06d", prefix, uniqueCounter.Add(1))
}
