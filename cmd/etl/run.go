package main

import (
	"encoding/json"
	"os"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full run (extract, transform, load, summarize)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, models.RunKindFull)
	},
}

var incrementalCmd = &cobra.Command{
	Use:     "incremental",
	Aliases: []string{"inc"},
	Short:   "Refresh the daily sales summary from persisted data",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, models.RunKindIncremental)
	},
}

var runFlags struct {
	printReport bool
}

func init() {
	for _, c := range []*cobra.Command{runCmd, incrementalCmd} {
		c.Flags().BoolVar(&runFlags.printReport, "print-report", false, "Print the run report as JSON to stdout")
		rootCmd.AddCommand(c)
	}
}

func runOnce(cmd *cobra.Command, kind models.RunKind) error {
	ctx := cmd.Context()
	logger := config.GetLogger()

	p, err := buildPipeline(ctx, logger)
	if err != nil {
		return err
	}
	report, runErr := p.Run(ctx, kind, models.RunTriggerCLI)
	if runFlags.printReport && report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return runErr
}
