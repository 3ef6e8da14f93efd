// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for smartrun.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hartleyhq/smartrun/internal/config"
	"github.com/hartleyhq/smartrun/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the effective configuration, loaded once before any RunE runs.
	cfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "smartrun",
		Short: "A dependency-resolving runner for generated Python programs",
		Long: TitleStyle.Render("smartrun") + SubtitleStyle.Render(" - A dependency-resolving runner for generated Python programs") + `

smartrun takes a generated Python program, strips any markdown fencing
around it, discovers the external modules it imports, installs the
missing ones with pip, and executes the result in a fresh interpreter
process. The outcome is reported as exactly one JSON line on stdout so
that a supervising process can parse it mechanically.

` + SubtitleStyle.Render("Examples:") + `
  smartrun run prog.py      Run a generated program end to end
  smartrun serve            Start the action dispatch server
  smartrun config show      Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/smartrun/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	loaded, err := config.Load()
	if err != nil {
		// Config problems never abort startup; defaults still work.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		printHint(issue.ConfigLoadFailedId)
		return
	}
	cfg = loaded

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.Verbose
	}
}

// auditLogger opens the persistent audit log. Structured records go to the
// configured file; stdout stays reserved for the result line, so a broken
// log path falls back to stderr.
func auditLogger() (*log.Logger, func()) {
	f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+fmt.Sprintf("audit log %s unusable, logging to stderr: %v", cfg.AuditLog, err))
		return newLogger(os.Stderr), func() {}
	}
	return newLogger(f), func() { _ = f.Close() }
}

func newLogger(w *os.File) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "smartrun",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// printHint renders a remediation hint to stderr in verbose mode.
func printHint(id issue.Id) {
	if !verbose {
		return
	}
	if i := issue.Lookup(id); i != nil {
		if rendered, err := i.Render(); err == nil {
			fmt.Fprint(os.Stderr, rendered)
		}
	}
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
