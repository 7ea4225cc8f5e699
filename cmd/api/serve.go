package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadp "loan-ledger/internal/adapter/http"
	"loan-ledger/internal/config"
	cronrunner "loan-ledger/internal/infrastructure/cron"
	"loan-ledger/internal/infrastructure/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, import workers and the reconcile schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("auto-migrate", false, "create or update tables before serving (always on for sqlite)")
	cmd.Flags().Int64("max-upload-bytes", httpadp.DefaultMaxUpload, "largest accepted CSV upload")
}

func runServe(cmd *cobra.Command) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	autoMigrate, _ := cmd.Flags().GetBool("auto-migrate")
	if autoMigrate || cfg.DBDriver == config.DriverSQLite {
		if err := db.AutoMigrate(a.db); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	maxUpload, _ := cmd.Flags().GetInt64("max-upload-bytes")
	e := httpadp.NewRouter(httpadp.RouterDeps{
		Health:     httpadp.NewHandler(sqlDB),
		Loans:      httpadp.NewLoanHandler(a.loans),
		CashFlows:  httpadp.NewCashFlowHandler(a.flows),
		Imports:    httpadp.NewImportHandler(a.dispatcher, maxUpload),
		Statistics: httpadp.NewStatisticsHandler(a.stats),
		Redis:      a.rdb,
		IdempTTL:   cfg.IdempotencyTTL(),
		Log:        log,
	})

	var runner *cronrunner.Runner
	if cfg.ReconcileSchedule != "" {
		runner = cronrunner.New(log.Named("cron"), ctx)
		if _, err := runner.Add(cfg.ReconcileSchedule, func(ctx context.Context) {
			n, err := a.engine.RecomputeAll(ctx)
			if err != nil {
				log.Warn("reconcile finished with errors", zap.Int("loans", n), zap.Error(err))
				return
			}
			log.Info("reconcile finished", zap.Int("loans", n))
		}); err != nil {
			return err
		}
		runner.Start()
		defer runner.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.dispatcher.Run(gctx) })
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
