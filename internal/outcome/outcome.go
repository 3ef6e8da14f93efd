// SPDX-License-Identifier: MPL-2.0

// Package outcome models the single terminal result of one engine
// invocation: either success or a stage-tagged failure. Exactly one
// Outcome is produced per invocation; together with the process exit code
// it is the only artifact the caller observes.
package outcome

import (
	"encoding/json"
	"fmt"

	"github.com/hartleyhq/smartrun/pkg/types"
)

// Stage identifies which pipeline stage produced a failure.
type Stage string

const (
	// StageUsage marks a wrong-invocation failure (argument arity).
	StageUsage Stage = "usage"
	// StageIO marks a failure to read the candidate program file.
	StageIO Stage = "io"
	// StageParse marks a syntax error in the candidate program.
	StageParse Stage = "parse"
	// StageInstall marks a dependency that stayed unresolvable after all
	// install attempts.
	StageInstall Stage = "install"
	// StageExecute marks an uncaught fault raised by the candidate
	// program while running.
	StageExecute Stage = "execute"
	// StageInternal marks an unanticipated engine fault converted by the
	// outermost catch-all.
	StageInternal Stage = "internal"
)

type (
	// Outcome is a tagged value: success, or a failure with stage,
	// message, and diagnostic detail.
	Outcome struct {
		failure *Failure
	}

	// Failure describes a terminal pipeline error. Message is the concise
	// human-readable summary serialized to the caller; Detail carries the
	// full diagnostic (e.g. a traceback) and goes only to the audit log.
	Failure struct {
		Stage   Stage
		Message string
		Detail  string
	}

	// resultLine is the wire shape of the one-line stdout contract:
	// a single "result" key, as the upstream dispatcher expects.
	resultLine struct {
		Result string `json:"result"`
	}
)

// successMarker is the result value emitted when the candidate program ran
// to completion.
const successMarker = "success"

// Success returns the successful Outcome.
func Success() Outcome { return Outcome{} }

// Fail returns a failure Outcome for the given stage.
func Fail(stage Stage, message, detail string) Outcome {
	return Outcome{failure: &Failure{Stage: stage, Message: message, Detail: detail}}
}

// Failf returns a failure Outcome with a formatted message and no detail.
func Failf(stage Stage, format string, args ...any) Outcome {
	return Fail(stage, fmt.Sprintf(format, args...), "")
}

// IsSuccess reports whether the invocation ran to completion.
func (o Outcome) IsSuccess() bool { return o.failure == nil }

// Failure returns the failure descriptor, or nil for success.
func (o Outcome) Failure() *Failure { return o.failure }

// ExitCode maps the outcome onto the process exit status: zero for
// success, non-zero for any failure.
func (o Outcome) ExitCode() types.ExitCode {
	if o.IsSuccess() {
		return 0
	}
	return 1
}

// ResultLine serializes the outcome as the single JSON line the caller
// parses. Failures render as "<stage>: <message>" under the same single
// key so the upstream dispatcher can relay the line unmodified.
func (o Outcome) ResultLine() string {
	line := resultLine{Result: successMarker}
	if o.failure != nil {
		line.Result = fmt.Sprintf("%s: %s", o.failure.Stage, o.failure.Message)
	}

	out, err := json.Marshal(line)
	if err != nil {
		// A flat struct of strings cannot fail to marshal; keep the
		// contract anyway rather than emit nothing.
		return `{"result":"internal: result serialization failed"}`
	}
	return string(out)
}
