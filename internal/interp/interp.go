// SPDX-License-Identifier: MPL-2.0

// Package interp adapts the host Python interpreter and its package manager
// as subprocess-backed primitives: syntax checking, stdlib registry lookup,
// importability probes, pip installation, and program execution.
//
// Running a candidate program as a fresh interpreter process gives it an
// empty __main__ namespace by construction; nothing from this process leaks
// into it beyond the interpreter's own baseline environment.
package interp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hartleyhq/smartrun/pkg/types"
)

// ErrInterpreterNotFound is returned when no Python interpreter can be
// located on the PATH and none was configured.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// candidate interpreter binaries, tried in order when none is configured.
var lookupOrder = []string{"python3", "python"}

type (
	// Interpreter is a handle to a resolved Python executable.
	Interpreter struct {
		// Path is the absolute path of the interpreter binary.
		Path string
		// PipArgs are extra arguments appended to every pip install
		// invocation (e.g. --user, an index URL).
		PipArgs []string
	}

	// SyntaxError carries the interpreter's own parse diagnostic for a
	// candidate program that failed to compile.
	SyntaxError struct {
		Msg string
	}

	// RunResult is the outcome of executing a candidate program.
	// Stdout holds the program's own output; Stderr holds its diagnostic
	// stream, which the caller suppresses from the primary channel and
	// uses only as failure detail.
	RunResult struct {
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
		// Signal describes abnormal termination ("signal: killed") when
		// the child died on a signal instead of exiting; empty otherwise.
		Signal string
		// Err is set only for infrastructure failures (interpreter could
		// not be started), never for program-level faults.
		Err error
	}
)

// Error implements the error interface.
func (e *SyntaxError) Error() string { return e.Msg }

// syntaxProbe compiles stdin as a module and reports a SyntaxError message
// on exit code 2, keeping it distinct from interpreter startup failures.
const syntaxProbe = `import sys
try:
    compile(sys.stdin.read(), "<generated>", "exec")
except SyntaxError as e:
    sys.stderr.write("%s (line %s)" % (e.msg, e.lineno))
    sys.exit(2)
`

// importProbe exits 0 when the module named by argv[1] resolves, 3 when it
// does not. find_spec itself can raise for malformed names; that counts as
// not importable.
const importProbe = `import importlib.util, sys
try:
    spec = importlib.util.find_spec(sys.argv[1])
except Exception:
    spec = None
sys.exit(0 if spec is not None else 3)
`

// stdlibProbe prints the runtime-maintained standard module registry.
const stdlibProbe = `import sys, json
print(json.dumps(sorted(sys.stdlib_module_names)))
`

// importsProbe parses stdin into a syntax tree and walks it, printing the
// set of top-level absolutely-imported module names. Import-shaped text
// inside string literals never parses as an import node, so it never
// registers here. Relative imports resolve inside the candidate itself and
// are skipped (level > 0).
const importsProbe = `import ast, json, sys
names = set()
for node in ast.walk(ast.parse(sys.stdin.read())):
    if isinstance(node, ast.Import):
        for alias in node.names:
            names.add(alias.name.partition(".")[0])
    elif isinstance(node, ast.ImportFrom) and node.level == 0 and node.module:
        names.add(node.module.partition(".")[0])
print(json.dumps(sorted(names)))
`

// Find resolves a Python interpreter. A non-empty configured path wins;
// otherwise python3 then python are tried on the PATH.
func Find(configured string) (*Interpreter, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return nil, fmt.Errorf("configured interpreter %q: %w", configured, ErrInterpreterNotFound)
		}
		return &Interpreter{Path: path}, nil
	}
	for _, name := range lookupOrder {
		if path, err := exec.LookPath(name); err == nil {
			return &Interpreter{Path: path}, nil
		}
	}
	return nil, ErrInterpreterNotFound
}

// CheckSyntax compiles code without executing it. A *SyntaxError is
// returned when the interpreter rejects the program; any other error means
// the probe itself could not run.
func (p *Interpreter) CheckSyntax(ctx context.Context, code string) error {
	cmd := exec.CommandContext(ctx, p.Path, "-c", syntaxProbe)
	cmd.Stdin = strings.NewReader(code)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 2 {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "invalid syntax"
		}
		return &SyntaxError{Msg: msg}
	}
	return fmt.Errorf("syntax probe failed: %w", err)
}

// StdlibModules returns the interpreter's standard module registry
// (sys.stdlib_module_names). The registry comes from the runtime, never
// from a hand-maintained list.
func (p *Interpreter) StdlibModules(ctx context.Context) (map[types.ModuleName]struct{}, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-c", stdlibProbe)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("stdlib registry probe failed: %w", err)
	}

	var names []string
	if err := json.Unmarshal(stdout.Bytes(), &names); err != nil {
		return nil, fmt.Errorf("stdlib registry probe returned malformed output: %w", err)
	}

	registry := make(map[types.ModuleName]struct{}, len(names))
	for _, name := range names {
		registry[types.ModuleName(name)] = struct{}{}
	}
	return registry, nil
}

// Imports returns the sorted set of top-level module names code imports,
// discovered by parsing the program into a syntax tree inside the
// interpreter. Callers should have validated the syntax first; a program
// that does not parse fails the probe.
func (p *Interpreter) Imports(ctx context.Context, code string) ([]types.ModuleName, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-c", importsProbe)
	cmd.Stdin = strings.NewReader(code)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("import scan probe failed: %w", err)
	}

	var names []string
	if err := json.Unmarshal(stdout.Bytes(), &names); err != nil {
		return nil, fmt.Errorf("import scan probe returned malformed output: %w", err)
	}

	modules := make([]types.ModuleName, 0, len(names))
	for _, name := range names {
		modules = append(modules, types.ModuleName(name))
	}
	return modules, nil
}

// Importable reports whether the module already resolves in the current
// environment. Installation must be skipped entirely for importable
// modules to avoid needless network calls.
func (p *Interpreter) Importable(ctx context.Context, module types.ModuleName) (bool, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-c", importProbe, module.String())

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 3 {
		return false, nil
	}
	return false, fmt.Errorf("import probe for %q failed: %w", module, err)
}

// Install performs a single installation attempt for module via
// `python -m pip install`. pip's own output is captured and surfaced only
// on failure; retry policy belongs to the caller.
func (p *Interpreter) Install(ctx context.Context, module types.ModuleName) error {
	if ok, errs := module.IsValid(); !ok {
		return errs[0]
	}

	args := append([]string{"-m", "pip", "install", module.String()}, p.PipArgs...)
	cmd := exec.CommandContext(ctx, p.Path, args...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := lastNonEmptyLine(string(out))
		if detail == "" {
			return fmt.Errorf("pip install %s: %w", module, err)
		}
		return fmt.Errorf("pip install %s: %w: %s", module, err, detail)
	}
	return nil
}

// Run executes the program stored at path in a fresh interpreter process.
// The child's stdout is captured; its stderr (diagnostics, warnings, and
// any traceback) is captured too but never reaches this process's output
// channels — the caller uses it solely as failure detail.
func (p *Interpreter) Run(ctx context.Context, path string) *RunResult {
	cmd := exec.CommandContext(ctx, p.Path, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := types.ExitCode(exitErr.ExitCode())
			if validateErr := code.Validate(); validateErr != nil {
				// A signal-killed child reports -1 instead of exiting.
				// Keep the stored code in range and preserve the wait
				// status ("signal: killed") for the fault summary.
				result.Signal = exitErr.ProcessState.String()
				code = 1
			}
			result.ExitCode = code
		} else {
			result.ExitCode = 1
			result.Err = fmt.Errorf("failed to start interpreter: %w", err)
		}
	}

	return result
}

// FaultSummary condenses a Python traceback into its terminal line,
// e.g. `ValueError: boom`. Returns a generic summary when the trace is
// empty (the program died on a signal, or exited non-zero without raising).
func (r *RunResult) FaultSummary() string {
	if line := lastNonEmptyLine(r.Stderr); line != "" {
		return line
	}
	if r.Signal != "" {
		return fmt.Sprintf("process terminated (%s)", r.Signal)
	}
	return fmt.Sprintf("process exited with status %s", r.ExitCode)
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
