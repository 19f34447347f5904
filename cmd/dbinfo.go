// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"medconnect/agent/internal/config"
	"medconnect/agent/internal/dsn"
	"medconnect/agent/internal/logging"
)

// dbinfoCmd shows which database the assistant would use, with the password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the resolved database connection",
	Long: `The dbinfo command displays the database connection string (DSN) the assistant
would use and where it came from, with the password masked.

Sources are tried in order: MEDCONNECT_DSN, DATABASE_URL, db.dsn in the config
file, the OS keychain, then the individual db.* settings.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		resolved, source, err := resolveDSN(cfg.DB, keychainSource())
		if err != nil {
			pterm.Println("⚠️  No usable database connection configured")
			pterm.Println("   " + logging.Mask(err.Error()))
			pterm.Println("   Please run: medconnect connect")
			return nil
		}

		pterm.Printf("Using DSN from %s\n\n", source)
		body := logging.Mask(resolved)
		if info, err := dsn.ParseInfo(resolved); err == nil {
			body += "\n\n" + pterm.Sprintf("host: %s\nport: %s\ndatabase: %s\nuser: %s", info.Host, info.Port, info.Database, info.User)
		}
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(body)
		pterm.Println()
		pterm.Println("To update this connection, run: medconnect connect")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
