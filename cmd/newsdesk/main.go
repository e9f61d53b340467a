package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/directory"
	"newsdesk/internal/notify"
	"newsdesk/internal/server"
	"newsdesk/internal/store"
	"newsdesk/internal/subscription"
	"newsdesk/internal/worker"
	"newsdesk/internal/workflow"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	cfg        config.Config
	configPath string
	redisAddr  string
	badgerPath string
	httpAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "newsdesk - editorial approval and subscriber notifications",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// Explicit flags win over file and environment
		flags := cmd.Flags()
		if flags.Changed("redis") {
			cfg.Redis.Addr = redisAddr
		}
		if flags.Changed("badger") {
			cfg.Badger.Path = badgerPath
		}
		if flags.Changed("addr") {
			cfg.HTTP.Addr = httpAddr
		}

		logger, err = newLogger(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and the notification dispatcher",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Initialize Store (FULL MODE - Redis + Badger)
		st, err := store.NewHybridStore(cfg.Redis.Addr, cfg.Badger.Path)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		rdb := st.Redis()
		dir := directory.NewRedisDirectory(rdb)
		idx := subscription.NewRedisIndex(rdb)
		queue := notify.NewRedisQueue(rdb, cfg.Notify.Queue)

		var sink notify.Sink = queue
		if cfg.Notify.Sink == "log" {
			sink = notify.NewLogSink(logger)
		}
		fanout := notify.NewFanout(idx, sink, logger,
			notify.WithTimeout(cfg.Notify.Timeout),
			notify.WithDeadline(cfg.Notify.Deadline),
			notify.WithConcurrency(cfg.Notify.Concurrency))

		svc := workflow.NewService(st, dir, idx, fanout, logger)

		// Start Dispatcher
		d := worker.NewDispatcher(queue, st, dir, logger)
		go d.Start(ctx)

		srv := server.NewServer(svc, dir, logger)
		go func() {
			if err := srv.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server stopped", zap.Error(err))
				stop()
			}
		}()

		logger.Info("Server running.", zap.String("addr", cfg.HTTP.Addr))

		// Block until shutdown
		<-ctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

func newLogger(c config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewDevelopmentConfig()
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "localhost:6379", "Address of Redis server")
	rootCmd.PersistentFlags().StringVar(&badgerPath, "badger", "./badger-data", "Path to BadgerDB data directory")
	serverCmd.Flags().StringVar(&httpAddr, "addr", ":8080", "HTTP listen address")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(actorCmd)
	rootCmd.AddCommand(publisherCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
