package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/spf13/cobra"

	"paddydoc/api/internal/config"
	"paddydoc/api/internal/store"
)

func newPurgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored diagnoses older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Require("DATABASE_URL"); err != nil {
				return err
			}
			db, err := sql.Open("pgx", cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.NewDiagnosisRepo(db).PurgeOlderThan(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d diagnoses\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the rows to delete")
	return cmd
}
