// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hartleyhq/smartrun/internal/config"
)

// configCmd is the `smartrun config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage smartrun configuration",
	Long: `Manage smartrun configuration.

Configuration is stored in:
  - Linux: ~/.config/smartrun/config.cue
  - macOS: ~/Library/Application Support/smartrun/config.cue
  - Windows: %APPDATA%\smartrun\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})
}

func showConfig() error {
	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path, ok := configFilePath(); ok {
		fmt.Printf("%s: %s\n", KeyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "(auto-detect)"
	}
	fmt.Printf("%s: %s\n", KeyStyle.Render("interpreter"), SuccessStyle.Render(interpreter))
	fmt.Printf("%s: %s\n", KeyStyle.Render("pip_args"), SuccessStyle.Render(strings.Join(cfg.PipArgs, " ")))
	fmt.Printf("%s: %s\n", KeyStyle.Render("audit_log"), SuccessStyle.Render(cfg.AuditLog))
	fmt.Printf("%s: %s\n", KeyStyle.Render("install.attempts"), SuccessStyle.Render(fmt.Sprintf("%d", cfg.Install.Attempts)))
	fmt.Printf("%s: %s\n", KeyStyle.Render("install.delay_seconds"), SuccessStyle.Render(fmt.Sprintf("%d", cfg.Install.DelaySeconds)))
	fmt.Printf("%s: %s\n", KeyStyle.Render("server.port"), SuccessStyle.Render(fmt.Sprintf("%d", cfg.Server.Port)))
	fmt.Printf("%s: %s\n", KeyStyle.Render("server.database"), SuccessStyle.Render(cfg.Server.Database))
	return nil
}

func showConfigPath() error {
	if path, ok := configFilePath(); ok {
		fmt.Println(path)
		return nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.cue") + " (not created yet)")
	return nil
}

// configFilePath reports the config file that would be loaded, preferring
// the --config override over the standard location.
func configFilePath() (string, bool) {
	if cfgFile != "" {
		return cfgFile, statOK(cfgFile)
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(dir, "config.cue")
	return path, statOK(path)
}

func statOK(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
