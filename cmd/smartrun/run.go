// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartleyhq/smartrun/internal/install"
	"github.com/hartleyhq/smartrun/internal/interp"
	"github.com/hartleyhq/smartrun/internal/issue"
	"github.com/hartleyhq/smartrun/internal/outcome"
	"github.com/hartleyhq/smartrun/internal/runner"
)

// runCmd executes a generated program end to end. Every path through the
// command, including argument mistakes, emits exactly one JSON result line
// on stdout; cobra's own usage and error output are suppressed so nothing
// else can leak into the primary channel.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a generated Python program with dependency resolution",
	Long: `Run a generated Python program end to end.

The program is sanitized (markdown fences stripped), its imports are
scanned, external modules are installed via pip with retries, and the
result is executed in a fresh interpreter process. The outcome is
printed as a single JSON line on stdout:

  {"result": "success"}
  {"result": "execute: NameError: name 'x' is not defined"}`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Arity mistakes still honor the one-line output contract, so the
		// check lives here instead of cobra.ExactArgs.
		if len(args) != 1 {
			return emit(outcome.Failf(outcome.StageUsage,
				"expected exactly one argument (the candidate program path), got %d", len(args)))
		}

		logger, closeLog := auditLogger()
		defer closeLog()

		pt, err := interp.Find(cfg.Interpreter)
		if err != nil {
			logger.Error("no usable interpreter", "configured", cfg.Interpreter, "err", err)
			printHint(issue.InterpreterNotFoundId)
			return emit(outcome.Failf(outcome.StageInternal, "locating interpreter: %v", err))
		}
		pt.PipArgs = cfg.PipArgs
		logger.Debug("interpreter resolved", "path", pt.Path)

		inst := install.New(pt,
			install.WithAttempts(cfg.Install.AttemptCount()),
			install.WithDelay(cfg.Install.Delay()),
			install.WithLogger(logger),
		)
		engine := runner.New(pt, inst, runner.WithLogger(logger))

		out := engine.RunFile(cmd.Context(), args[0])
		if f := out.Failure(); f != nil {
			switch f.Stage {
			case outcome.StageIO:
				printHint(issue.CandidateFileNotFoundId)
			case outcome.StageInstall:
				printHint(issue.PipUnavailableId)
			}
		}
		return emit(out)
	},
}

// emit prints the outcome's single result line and maps failure onto the
// process exit status.
func emit(out outcome.Outcome) error {
	fmt.Println(out.ResultLine())
	if out.IsSuccess() {
		return nil
	}
	return &ExitError{Code: out.ExitCode()}
}
