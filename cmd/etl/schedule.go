package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/ops"
	"github.com/mmdatafocus/orders_etl/workflow"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily full and interval incremental triggers until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var scheduleFlags struct {
	maxIterations int
}

func init() {
	scheduleCmd.Flags().IntVar(&scheduleFlags.maxIterations, "max-iterations", 0, "Stop after this many polls (0 runs until interrupted)")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	logger := config.GetLogger()

	// SIGTERM stops the loop after the current run returns.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, logger)
	if err != nil {
		return err
	}
	sched, err := workflow.NewSchedulerFromSettings(p, settings, logger)
	if err != nil {
		return err
	}
	sched.MaxIterations = scheduleFlags.maxIterations
	if locker := config.GetRedisLock(); locker != nil {
		sched.Locker = locker
	}

	var srv *http.Server
	if settings.OpsAddr != "" {
		srv = startOpsServer(sched, logger)
	}

	err = sched.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + serr.Error())
		}
	}
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
	if errors.Is(err, context.Canceled) {
		logger.WithFields(logrus.Fields{"field": "Scheduler"}).Info("scheduler stopped")
		return nil
	}
	return err
}

func startOpsServer(sched *workflow.Scheduler, logger *logrus.Logger) *http.Server {
	server := &ops.Server{
		Queue:    sched,
		History:  ops.DBHistory{DB: config.GetDB()},
		Triggers: sched.Status,
		Logger:   logger,
	}
	if config.GetRedisDB() != nil {
		server.Status = workflow.NewStatusCache(0)
		server.Limiter = ops.NewRateLimiter(config.GetRedisDB(), 30, time.Minute)
	}

	srv := &http.Server{
		Addr:              settings.OpsAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("ops server stopped unexpectedly: " + err.Error())
		}
	}()
	logger.WithFields(logrus.Fields{"field": "http", "addr": settings.OpsAddr}).Info("ops server listening")
	return srv
}
