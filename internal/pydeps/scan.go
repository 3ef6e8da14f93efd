// SPDX-License-Identifier: MPL-2.0

// Package pydeps lexically discovers the modules a Python program appears
// to import. It is the fallback behind interp's syntax-tree probe: the
// scan is line-oriented over already syntax-checked source, so it can
// over-match import-shaped lines inside string literals, which the tree
// walk never does. `import a.b as c, d` and `from x.y import z` both
// contribute their first path segment; relative imports contribute the
// named module with its leading dots stripped, or nothing when only dots
// remain.
package pydeps

import (
	"regexp"
	"slices"
	"strings"

	"github.com/hartleyhq/smartrun/pkg/types"
)

var (
	// importStmt matches `import mod[, mod2 ...]` (with optional aliases),
	// including imports nested inside indented blocks.
	importStmt = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w. \t,]+?)(?:[ \t]*(?:#.*)?)$`)

	// fromStmt matches the source module of `from mod import ...`,
	// including relative forms such as `from .pkg import x`.
	fromStmt = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([.\w]+)[ \t]+import\b`)
)

// Scan returns the deduplicated, lexically sorted set of top-level module
// names referenced by import statements in code. Filtering against the
// stdlib registry is the caller's concern (see Filter).
func Scan(code string) []types.ModuleName {
	seen := make(map[types.ModuleName]struct{})

	for _, m := range importStmt.FindAllStringSubmatch(code, -1) {
		for _, clause := range strings.Split(m[1], ",") {
			addTopLevel(seen, firstToken(clause))
		}
	}
	for _, m := range fromStmt.FindAllStringSubmatch(code, -1) {
		addTopLevel(seen, m[1])
	}

	modules := make([]types.ModuleName, 0, len(seen))
	for mod := range seen {
		modules = append(modules, mod)
	}
	slices.Sort(modules)
	return modules
}

// Filter removes every module present in the registry, preserving order.
// The registry must come from the interpreter's own stdlib listing.
func Filter(modules []types.ModuleName, registry map[types.ModuleName]struct{}) []types.ModuleName {
	external := make([]types.ModuleName, 0, len(modules))
	for _, mod := range modules {
		if _, ok := registry[mod]; !ok {
			external = append(external, mod)
		}
	}
	return external
}

// addTopLevel records the first path segment of a dotted module reference.
// Relative references keep their named module (`.pkg` contributes `pkg`);
// bare-dot references contribute nothing.
func addTopLevel(seen map[types.ModuleName]struct{}, ref string) {
	ref = strings.TrimLeft(ref, ".")
	if ref == "" {
		return
	}
	top, _, _ := strings.Cut(ref, ".")
	mod := types.ModuleName(top)
	if ok, _ := mod.IsValid(); !ok {
		return
	}
	seen[mod] = struct{}{}
}

// firstToken returns the leading identifier of an import clause, dropping
// any `as alias` suffix.
func firstToken(clause string) string {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
