// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
)

// Exit codes. Scripts can tell "fix your invocation" from "the server
// is unreachable, try again" without parsing messages.
const (
	exitInternal   = 1
	exitValidation = 2
	exitTransient  = 3
	exitNotFound   = 4
)

// ErrorCategory classifies command errors.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryTransient  ErrorCategory = "transient"
	CategoryInternal   ErrorCategory = "internal"
)

// CommandError is a categorized error with an optional hint telling
// the operator what to do next.
type CommandError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

// Error returns the message, followed by the hint after a blank line
// when there is one.
func (e *CommandError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode maps the category to the process exit code.
func (e *CommandError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return exitValidation
	case CategoryTransient:
		return exitTransient
	case CategoryNotFound:
		return exitNotFound
	default:
		return exitInternal
	}
}

// WithHint sets the hint and returns the receiver for chaining.
func (e *CommandError) WithHint(hint string) *CommandError {
	e.Hint = hint
	return e
}

func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

func Transient(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitError exits with Code without printing anything further; the
// command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

func (e *ExitError) ExitCode() int { return e.Code }

func isSilent(err error) bool {
	var exitError *ExitError
	return errors.As(err, &exitError)
}
