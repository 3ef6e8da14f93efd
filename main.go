// SPDX-License-Identifier: MPL-2.0

// smartrun runs generated Python programs with dependency resolution and
// serves the action dispatch HTTP endpoint.
package main

import cmd "github.com/hartleyhq/smartrun/cmd/smartrun"

func main() {
	cmd.Execute()
}
