// SPDX-License-Identifier: MPL-2.0

// Package runner orchestrates the dependency-resolving execution pipeline:
// sanitize the candidate program, discover and install the external modules
// it imports, execute it in a fresh interpreter process, and produce
// exactly one stage-tagged outcome.
//
// The pipeline is strictly sequential with no branching back; any stage
// can short-circuit straight to a failure outcome. There is no timeout on
// the candidate program itself: a hang in generated code hangs the
// pipeline until the process is terminated externally (the context is
// threaded through so a delivered signal kills the child).
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hartleyhq/smartrun/internal/interp"
	"github.com/hartleyhq/smartrun/internal/outcome"
	"github.com/hartleyhq/smartrun/internal/pydeps"
	"github.com/hartleyhq/smartrun/internal/sanitize"
	"github.com/hartleyhq/smartrun/pkg/types"
)

type (
	// Runtime is the slice of the interpreter adapter the pipeline needs.
	Runtime interface {
		CheckSyntax(ctx context.Context, code string) error
		Imports(ctx context.Context, code string) ([]types.ModuleName, error)
		StdlibModules(ctx context.Context) (map[types.ModuleName]struct{}, error)
		Run(ctx context.Context, path string) *interp.RunResult
	}

	// Installer resolves the discovered external modules.
	Installer interface {
		EnsureAll(ctx context.Context, modules []types.ModuleName) error
	}

	// Engine runs candidate programs end to end.
	Engine struct {
		runtime   Runtime
		installer Installer
		logger    *log.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// WithLogger overrides the audit logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over the given runtime and installer.
func New(rt Runtime, inst Installer, opts ...Option) *Engine {
	e := &Engine{runtime: rt, installer: inst, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunFile reads the candidate program from path and runs the pipeline.
// An unreadable file is an io-stage failure; the file is the only input
// ever opened on behalf of the caller.
func (e *Engine) RunFile(ctx context.Context, path string) outcome.Outcome {
	raw, err := os.ReadFile(path)
	if err != nil {
		return outcome.Fail(outcome.StageIO, fmt.Sprintf("reading candidate program: %v", err), "")
	}
	return e.RunCode(ctx, string(raw))
}

// RunCode runs the full pipeline over raw candidate text and always
// returns a terminal outcome: every fault, including an unanticipated
// panic inside the engine, is converted rather than propagated, so the
// caller's one-line output contract holds on every path.
func (e *Engine) RunCode(ctx context.Context, raw string) (out outcome.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("unexpected engine fault", "panic", r)
			out = outcome.Failf(outcome.StageInternal, "unexpected error: %v", r)
		}
	}()

	code := sanitize.Code(raw)

	if err := e.runtime.CheckSyntax(ctx, code); err != nil {
		var synErr *interp.SyntaxError
		if errors.As(err, &synErr) {
			// Syntax errors are never transient; fail fast, no retry.
			e.logger.Error("candidate program failed to parse", "err", synErr.Msg)
			return outcome.Fail(outcome.StageParse, synErr.Msg, "")
		}
		e.logger.Error("syntax probe unavailable", "err", err)
		return outcome.Failf(outcome.StageInternal, "syntax check: %v", err)
	}

	if failed, failure := e.resolveDependencies(ctx, code); failed {
		return failure
	}

	return e.execute(ctx, code)
}

// resolveDependencies discovers imported modules and installs the missing
// ones. Discovery walks the program's syntax tree inside the interpreter,
// so import-shaped text inside string literals never becomes a work item;
// the lexical scan only serves as fallback when the probe cannot run. The
// boolean result distinguishes "no failure" from a failure outcome. An
// empty work list short-circuits without touching the installer or the
// stdlib registry.
func (e *Engine) resolveDependencies(ctx context.Context, code string) (bool, outcome.Outcome) {
	modules, err := e.runtime.Imports(ctx, code)
	if err != nil {
		e.logger.Warn("import probe unavailable, falling back to lexical scan", "err", err)
		modules = pydeps.Scan(code)
	}
	if len(modules) == 0 {
		return false, outcome.Outcome{}
	}

	registry, err := e.runtime.StdlibModules(ctx)
	if err != nil {
		e.logger.Error("stdlib registry lookup failed", "err", err)
		return true, outcome.Failf(outcome.StageInternal, "stdlib registry: %v", err)
	}

	external := pydeps.Filter(modules, registry)
	if len(external) == 0 {
		e.logger.Debug("all imports are standard modules", "modules", len(modules))
		return false, outcome.Outcome{}
	}

	e.logger.Info("resolving external modules", "modules", external)
	if err := e.installer.EnsureAll(ctx, external); err != nil {
		// Modules installed before the failing one stay installed; the
		// host package set only ever grows.
		e.logger.Error("dependency resolution failed", "err", err)
		return true, outcome.Fail(outcome.StageInstall, err.Error(), "")
	}
	return false, outcome.Outcome{}
}

// execute writes the sanitized program to a scratch file and runs it in a
// fresh interpreter process. The program's diagnostic stream never reaches
// this process's output channels; on failure it becomes the outcome detail.
func (e *Engine) execute(ctx context.Context, code string) outcome.Outcome {
	dir, err := os.MkdirTemp("", "smartrun-*")
	if err != nil {
		return outcome.Failf(outcome.StageInternal, "scratch dir: %v", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.logger.Warn("failed to remove scratch dir", "dir", dir, "err", rmErr)
		}
	}()

	path := filepath.Join(dir, "candidate.py")
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return outcome.Failf(outcome.StageInternal, "writing scratch file: %v", err)
	}

	result := e.runtime.Run(ctx, path)
	if result.Err != nil {
		e.logger.Error("interpreter could not be started", "err", result.Err)
		return outcome.Failf(outcome.StageExecute, "starting interpreter: %v", result.Err)
	}
	if !result.ExitCode.IsSuccess() {
		summary := result.FaultSummary()
		e.logger.Error("candidate program raised a fault",
			"exit", result.ExitCode, "fault", summary)
		if result.Stderr != "" {
			e.logger.Debug("candidate program traceback", "trace", result.Stderr)
		}
		return outcome.Fail(outcome.StageExecute, summary, result.Stderr)
	}

	if result.Stdout != "" {
		e.logger.Info("candidate program output", "stdout", result.Stdout)
	}
	return outcome.Success()
}
