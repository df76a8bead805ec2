package main

import (
	"fmt"

	"github.com/baderkha/db-migrate/pkg/migrate/connection"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables a run would migrate from the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Source.Validate(); err != nil {
			return fmt.Errorf("source : %w", err)
		}
		conn, err := connection.Dial(cmd.Context(), cfg.Source, connection.Options{MaxOpenConns: 1, Logger: log})
		if err != nil {
			return err
		}
		defer conn.Close()

		names, err := conn.ListTables(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}
