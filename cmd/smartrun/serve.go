// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hartleyhq/smartrun/internal/config"
	"github.com/hartleyhq/smartrun/internal/dispatch"
	"github.com/hartleyhq/smartrun/internal/issue"
)

// serveCmd starts the action dispatch server, which accepts named actions
// over HTTP and relays generated-code runs to the engine as a subprocess.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the action dispatch server",
	Long: `Start the HTTP action dispatch server.

The server listens for POST /api/action requests carrying a named action
and its parameters. Simple actions run locally; the run_generated_code
action hands the payload to the execution engine and relays its single
JSON result line. Every request/response pair is recorded in a sqlite
audit database.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// A local .env may carry deployment overrides; absence is normal.
		if err := godotenv.Load(); err == nil {
			reloadConfigFromEnv()
		}

		logger, closeLog := auditLogger()
		defer closeLog()

		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolving own binary for engine relay: %w", err)
		}

		srv, err := dispatch.NewServer(dispatch.ServerConfig{
			Port:         cfg.Server.Port,
			DatabasePath: cfg.Server.Database,
			Engine:       &dispatch.SubprocessEngine{Binary: self},
			Logger:       logger,
		})
		if err != nil {
			printHint(issue.AuditDatabaseFailedId)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(os.Stderr, TitleStyle.Render("smartrun dispatch")+
			SubtitleStyle.Render(fmt.Sprintf(" listening on :%d", cfg.Server.Port)))

		if err := srv.ListenAndServe(ctx); err != nil {
			printHint(issue.ServerStartFailedId)
			return err
		}
		return nil
	},
}

// reloadConfigFromEnv re-derives the effective configuration after a .env
// file has populated the environment.
func reloadConfigFromEnv() {
	if loaded, err := config.Load(); err == nil {
		cfg = loaded
	}
}
