// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the agent server. Callers can
// use errors.As to extract it:
//
//	var apiErr *agentclient.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest { ... }
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Name is the server's error class (e.g. "NotFoundError"). Empty
	// when the body was not a structured error.
	Name string
	// Message is the human-readable description, or the start of the
	// raw body for unstructured errors.
	Message string
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("agentclient: server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("agentclient: %s (%d): %s", e.Name, e.StatusCode, e.Message)
}

// Server error names.
const (
	ErrNameNotFound   = "NotFoundError"
	ErrNameBadRequest = "BadRequest"
	ErrNameUnknown    = "UnknownError"
)

// errorBody is the JSON shape of structured server errors.
type errorBody struct {
	Name string `json:"name"`
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

// IsNotFound reports whether err is an APIError for a missing entity.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound || apiErr.Name == ErrNameNotFound
	}
	return false
}
