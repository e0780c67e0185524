package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	mfistore "grameengo/internal/mfi/store"
	"grameengo/internal/platform/config"
	"grameengo/internal/platform/postgres"
)

func migrateCmd(envFile *string) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is not set")
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(ctx, db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
			}
			for _, v := range applied {
				fmt.Fprintln(out, "applied", v)
			}

			if seed {
				n, err := mfistore.Seed(ctx, mfistore.NewPostgres(db), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "seeded %d mfis\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Insert the bundled MFI catalog after migrating")
	return cmd
}
