// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/hartleyhq/smartrun/pkg/types"
)

// ExitError carries the exit status a handler decided on, so RunE can
// return normally after the result line is already on stdout and Execute
// maps the code onto os.Exit at the very end.
type ExitError struct {
	Code types.ExitCode
	// Err optionally holds the underlying cause; the run command leaves it
	// nil because the failure is already reported on the wire.
	Err error
}

// Error returns the cause's message, or a generic exit status line.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap exposes the cause to errors.Is/As chains.
func (e *ExitError) Unwrap() error {
	return e.Err
}
