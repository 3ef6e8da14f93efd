// SPDX-License-Identifier: MPL-2.0

// Package types defines cross-cutting value types shared by the engine
// packages (pydeps, install, runner). These carry semantic meaning and
// validation but have no domain-specific dependencies.
//
// This package is a leaf dependency: it imports only the standard library.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidModuleName is the sentinel error wrapped by InvalidModuleNameError.
var ErrInvalidModuleName = errors.New("invalid module name")

type (
	// ModuleName is a top-level Python module name discovered from an
	// import statement, e.g. "requests" for `import requests.sessions`.
	// It never contains a dot: callers split dotted paths before
	// constructing a ModuleName.
	ModuleName string

	// InvalidModuleNameError is returned when a ModuleName is empty,
	// contains path separators or dots, or has surrounding whitespace.
	InvalidModuleNameError struct {
		Value  ModuleName
		Reason string
	}
)

// String returns the string representation of the ModuleName.
func (m ModuleName) String() string { return string(m) }

// IsValid returns whether the ModuleName is a plausible top-level module
// name. It rejects empty names, dotted paths, path separators, and
// whitespace, since any of these passed to the package manager would
// install something other than what the import statement referenced.
func (m ModuleName) IsValid() (bool, []error) {
	s := string(m)
	switch {
	case s == "":
		return false, []error{&InvalidModuleNameError{Value: m, Reason: "must not be empty"}}
	case strings.ContainsAny(s, " \t\n"):
		return false, []error{&InvalidModuleNameError{Value: m, Reason: "must not contain whitespace"}}
	case strings.Contains(s, "."):
		return false, []error{&InvalidModuleNameError{Value: m, Reason: "must be a top-level name (no dots)"}}
	case strings.ContainsAny(s, `/\`):
		return false, []error{&InvalidModuleNameError{Value: m, Reason: "must not contain path separators"}}
	}
	return true, nil
}

// Error implements the error interface for InvalidModuleNameError.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidModuleName for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }
