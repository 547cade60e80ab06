// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities for the agent server
// client.
//
// Response helpers (ReadResponse, ErrorBody) bound all
// response body reads at MaxResponseSize to prevent unbounded memory
// allocation from a misbehaving server. They are for JSON API
// responses, not for the event stream, which is read incrementally one
// line at a time with each line bounded by MaxEventSize.
//
// IsStreamEnd classifies errors that occur when a long-lived response
// body ends because the server went away or the client cancelled.
package netutil

import "io"

// MaxResponseSize is the bound on JSON API response body reads: 64 MB.
// A session history of a hundred messages with large tool outputs is
// the biggest legitimate response and is well under this.
const MaxResponseSize int64 = 64 << 20

// MaxEventSize is the bound on one line of the event stream: 16 MB.
// Part updates carry whole tool outputs on one line.
const MaxEventSize = 16 << 20

// maxErrorBody bounds the text ErrorBody returns for error messages.
const maxErrorBody = 4 << 10

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads the start of an HTTP error response body and returns
// it as a string for diagnostic error messages. Read errors are
// ignored: a partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return string(data)
}
