// SPDX-License-Identifier: MPL-2.0

// Package issue maps well-known failure conditions to user-facing
// remediation hints. Hints are markdown, rendered for the terminal on
// stderr in verbose mode; they never touch stdout, which is reserved for
// the engine's single structured result line.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a known failure condition.
type Id int

const (
	InterpreterNotFoundId Id = iota + 1
	PipUnavailableId
	ConfigLoadFailedId
	CandidateFileNotFoundId
	ServerStartFailedId
	AuditDatabaseFailedId
)

type (
	// MarkdownMsg is markdown text that will be rendered for the terminal.
	MarkdownMsg string

	// Issue pairs an Id with its remediation hint.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the issue's identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown hint.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the hint for the terminal.
func (i *Issue) Render() (string, error) {
	return render(string(i.mdMsg), "auto")
}

// render is swappable in tests.
var render = glamour.Render

var known = map[Id]*Issue{
	InterpreterNotFoundId: {
		id: InterpreterNotFoundId,
		mdMsg: `
# No Python interpreter found!

smartrun executes candidate programs through the host Python interpreter,
but neither ` + "`python3`" + ` nor ` + "`python`" + ` was found on your PATH.

## Things you can try:
- Install Python 3 via your platform's package manager
- Point smartrun at an interpreter explicitly:
~~~
$ SMARTRUN_INTERPRETER=/opt/python/bin/python3 smartrun run prog.py
~~~
- Or set it in your config file:
~~~cue
interpreter: "/opt/python/bin/python3"
~~~`,
	},
	PipUnavailableId: {
		id: PipUnavailableId,
		mdMsg: `
# pip is not available!

Dependency installation runs ` + "`python -m pip install`" + `, but the
interpreter reports that pip is missing.

## Things you can try:
- Bootstrap pip for this interpreter:
~~~
$ python3 -m ensurepip --upgrade
~~~
- Or install it via your platform's package manager (e.g. python3-pip)`,
	},
	ConfigLoadFailedId: {
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file contains syntax errors or values outside the schema.

## Things you can try:
- Check the error message above for the specific field
- Validate the file's CUE syntax
- Inspect the effective configuration:
~~~
$ smartrun config show
~~~`,
	},
	CandidateFileNotFoundId: {
		id: CandidateFileNotFoundId,
		mdMsg: `
# Candidate program file not readable!

smartrun expects exactly one argument: the path of the generated program.

## Things you can try:
- Verify the path exists and is readable
- Quote paths containing spaces:
~~~
$ smartrun run "/tmp/generated code.py"
~~~`,
	},
	ServerStartFailedId: {
		id: ServerStartFailedId,
		mdMsg: `
# The action dispatch server failed to start!

## Common causes:
- The configured port is already in use
- The process lacks permission to bind the port

## Things you can try:
- Pick another port:
~~~
$ SMARTRUN_SERVER_PORT=9090 smartrun serve
~~~`,
	},
	AuditDatabaseFailedId: {
		id: AuditDatabaseFailedId,
		mdMsg: `
# The audit database could not be opened!

The dispatch server records every action in a sqlite database.

## Things you can try:
- Check that the database path is writable
- Choose another location:
~~~
$ SMARTRUN_SERVER_DATABASE=/var/lib/smartrun/audit.db smartrun serve
~~~`,
	},
}

// Lookup returns the Issue for id, or nil when the id is unknown.
func Lookup(id Id) *Issue {
	return known[id]
}

// KnownIds returns every registered issue id in ascending order.
func KnownIds() []Id {
	ids := maps.Keys(known)
	slices.Sort(ids)
	return ids
}
