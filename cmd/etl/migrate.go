package main

import (
	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every pipeline table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ConnectDatabaseWithRetry(rootFlags.dbAttempts); err != nil {
			return err
		}
		if err := models.MigrateTable(config.GetDB()); err != nil {
			return err
		}
		config.GetLogger().WithFields(logrus.Fields{"field": "migrations"}).Info("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
