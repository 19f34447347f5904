// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medconnect/agent/internal/keychain"
)

var forgetDBOnly bool

// forgetCmd removes secrets stored by connect.
var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove the saved DSN and API key from the OS keychain",
	Long: `The forget command removes what 'medconnect connect' stored in the OS keychain:

- the database connection string
- the reasoning provider API key (unless --db-only is given)

Settings in the config file and environment are left untouched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			return err
		}
		if forgetDBOnly {
			err = km.ClearDB()
		} else {
			err = km.ClearAll()
		}
		if err != nil {
			return fmt.Errorf("clear keychain: %w", err)
		}
		fmt.Println("✅ Saved credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
	forgetCmd.Flags().BoolVar(&forgetDBOnly, "db-only", false, "remove only the database connection")
}
