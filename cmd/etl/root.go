package main

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/load"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/reports"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/mmdatafocus/orders_etl/workflow"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	migrate    bool
	dbAttempts int
}

var settings *config.Settings

var rootCmd = &cobra.Command{
	Use:          "etl",
	Short:        "Orders ETL pipeline",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings()
		if err != nil {
			return err
		}
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootFlags.migrate, "migrate", false, "Run schema migrations before starting")
	rootCmd.PersistentFlags().IntVar(&rootFlags.dbAttempts, "db-attempts", 5, "Database connection attempts (0 retries forever)")
}

// connectStore opens the database, optionally migrates it, and wraps it in a GormStore.
func connectStore() (*load.GormStore, error) {
	if err := config.ConnectDatabaseWithRetry(rootFlags.dbAttempts); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if rootFlags.migrate {
		if err := models.MigrateTable(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return load.NewGormStore(db, settings.LoadBatchSize), nil
}

func newSource(ctx context.Context, logger *logrus.Logger) (extract.Source, error) {
	switch settings.RawSource {
	case config.SourceGCS:
		client, err := utils.GetGCSClient(ctx)
		if err != nil {
			return nil, err
		}
		return extract.NewGCSSource(client, settings.GCSBucket, settings.GCSPrefix, logger), nil
	default:
		return extract.NewCSVDirSource(settings.RawDataDir, settings.GenerateIfMissing, logger), nil
	}
}

// buildPipeline wires the source, store, snapshot and every configured run observer.
func buildPipeline(ctx context.Context, logger *logrus.Logger) (*workflow.Pipeline, error) {
	store, err := connectStore()
	if err != nil {
		return nil, err
	}
	source, err := newSource(ctx, logger)
	if err != nil {
		return nil, err
	}

	p := workflow.NewPipeline(source, store, logger)
	if settings.ProcessedDataDir != "" {
		p.Snapshot = reports.NewSnapshot(settings.ProcessedDataDir, settings.SnapshotXLSX, logger)
	}
	p.Observers = append(p.Observers, workflow.NewRunRecorder(store.DB))

	if config.RedisConfigured() {
		if err := config.ConnectRedisWithRetry(ctx, 3); err != nil {
			config.LogError(logger, "main", "buildPipeline", "redis unavailable; status cache disabled", nil, err)
		} else {
			p.Observers = append(p.Observers, workflow.NewStatusCache(0))
		}
	}
	if config.PubSubConfigured() {
		p.Observers = append(p.Observers, workflow.NewRunPublisher())
	}
	return p, nil
}
