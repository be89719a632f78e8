package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "harvestq.com/harvestq/internal/configs"
	httpapi "harvestq.com/harvestq/internal/http"
	middleware "harvestq.com/harvestq/internal/http/middlewares"
	"harvestq.com/harvestq/internal/queue"
	"harvestq.com/harvestq/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and worker pool",
	Long:  "Starts the task API, the claim poller, and the download workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer func() { _ = a.log.Sync() }()

		redisClient := config.NewRedisClient(a.cfg.RedisAddr)
		defer redisClient.Close()

		slots := queue.NewRedisSlotManager(redisClient, a.cfg.RedisSlotKey)
		if err := slots.Reset(context.Background(), a.cfg.QueueSize); err != nil {
			return err
		}

		downloader := &services.SimulatedDownloader{
			MinDelay: time.Second,
			MaxDelay: 5 * time.Second,
		}
		pool := services.NewPoolService(
			a.repo,
			slots,
			downloader,
			a.log,
			a.cfg.Workers,
			a.cfg.QueueSize,
			time.Duration(a.cfg.PollIntervalSeconds)*time.Second,
			a.cfg.PollBatchSize,
		)

		e := echo.New()
		e.HideBanner = true
		handler := httpapi.NewHandler(a.service)
		limiter := middleware.RateLimiter(redisClient, a.cfg.RedisRateLimitPrefix, a.cfg.RateLimit, time.Minute)
		httpapi.Register(e, handler, limiter)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			a.log.Info("HTTP server listening", zap.String("addr", a.cfg.AppURL))
			if err := e.Start(a.cfg.AppURL); err != nil {
				a.log.Info("server stopped", zap.Error(err))
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(a.cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
		pool.Shutdown(shutdownCtx)

		a.log.Info("HTTP server and worker pool shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
