package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FranksOps/seoscribe/internal/metrics"
	"github.com/FranksOps/seoscribe/internal/scheduler"
	"github.com/FranksOps/seoscribe/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the keyword form and run the keyword scheduler",
	Long: `Serve starts the web form at / and, unless disabled, a scheduler that
generates a draft for the next keyword of scheduler.keywords every
scheduler.interval. Scheduled drafts are logged and discarded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (default :5000)")
	serveCmd.Flags().Bool("no-scheduler", false, "disable the keyword scheduler")
	serveCmd.Flags().Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")

	_ = viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("metrics.port", serveCmd.Flags().Lookup("metrics-port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if off, _ := cmd.Flags().GetBool("no-scheduler"); off {
		cfg.Scheduler.Enabled = false
	}
	if err := cfg.ValidateScheduler(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	var metricsSrv *metrics.Server
	if cfg.Metrics.Port > 0 {
		metricsSrv = metrics.Start(cfg.Metrics.Port, logger)
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	schedDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		cycle, err := scheduler.NewCycle(cfg.Scheduler.Keywords, cfg.Scheduler.Start)
		if err != nil {
			return err
		}
		sched := scheduler.New(cycle, gen, scheduler.Config{
			Interval:   cfg.Scheduler.Interval,
			RunOnStart: cfg.Scheduler.RunOnStart,
		}, logger)
		go func() {
			defer close(schedDone)
			_ = sched.Run(ctx)
		}()
	} else {
		close(schedDone)
		logger.Info("keyword scheduler disabled")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := web.NewRouter(web.NewHandler(gen, web.Config{RenderMarkdown: cfg.Web.RenderMarkdown}, logger), logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-serveErr:
		if err != nil {
			stop()
			<-schedDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "err", err)
	}
	<-schedDone

	logger.Info("shutdown complete")
	return nil
}
