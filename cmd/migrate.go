package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Driver != "postgres" {
			return errors.New("migrate needs database.driver=postgres")
		}
		store, err := openBackend(cfg.Database, logger)
		if err != nil {
			return err
		}
		store.Close(logger)
		logger.Info("Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
