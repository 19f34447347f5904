// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medconnect/agent/internal/config"
	"medconnect/agent/internal/logging"
	"medconnect/agent/internal/schema"
	"medconnect/agent/internal/store"
)

// checkSchemaCmd compares the live database with the schema contract the
// query generator and validator are framed with.
var checkSchemaCmd = &cobra.Command{
	Use:   "check-schema",
	Short: "Compare the database schema with the assistant's contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		resolved, _, err := resolveDSN(cfg.DB, keychainSource())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		stopSpinner := startInlineSpinner(os.Stdout, "inspecting schema", brailleFrames, 100*time.Millisecond)
		drift, err := inspect(ctx, resolved)
		stopSpinner()
		if err != nil {
			pterm.Println(logging.PresentError("❌ Schema check failed", err))
			return err
		}

		if len(drift) == 0 {
			pterm.Success.Println("Database schema matches the contract.")
			return nil
		}
		rows := [][]string{{"Table", "Column", "Problem"}}
		for _, d := range drift {
			rows = append(rows, []string{d.Table, d.Column, d.Problem})
		}
		pterm.Warning.Printf("%d difference(s) found\n", len(drift))
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
		return fmt.Errorf("schema drift: %d difference(s)", len(drift))
	},
}

func init() {
	rootCmd.AddCommand(checkSchemaCmd)
}

func inspect(ctx context.Context, dsnValue string) ([]schema.Drift, error) {
	pg, err := store.Open(ctx, dsnValue, 2, zap.NewNop())
	if err != nil {
		return nil, err
	}
	defer pg.Close()
	return schema.NewInspector(pg.Pool()).Verify(ctx, schema.Default())
}
