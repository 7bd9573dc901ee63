package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"studyflow/configs"
	v1 "studyflow/internal/api/v1"
	"studyflow/internal/config"
	"studyflow/internal/repository"
	"studyflow/internal/worker"
	"studyflow/pkg/database"
	"studyflow/pkg/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg := configs.LoadConfig()

	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		log.Fatalf("Failed to initialize loggers: %v", err)
	}
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.ErrorLogger.Error("Database connection failed", zap.Error(err))
		log.Fatalf("Database connection failed: %v", err)
	}
	logger.SystemLogger.Info("Database connected")

	if err := repository.CreateTableIfNotExists(context.Background(), db); err != nil {
		logger.ErrorLogger.Error("Schema setup failed", zap.Error(err))
		log.Fatalf("Schema setup failed: %v", err)
	}

	rdb := database.ConnectRedis(context.Background(), cfg)
	config.Init(cfg, db, rdb)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go config.Hub.Run(hubCtx)

	archiver := &worker.AutoArchiver{
		Store:    config.Tasks,
		Cache:    config.Cache,
		Events:   config.Hub,
		After:    cfg.AutoArchiveAfter,
		Interval: cfg.AutoArchiveInterval,
	}
	archiver.Start()

	app := v1.NewApp(100)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"studyflow": func(ctx context.Context) error {
				logger.SystemLogger.Info("Graceful shutdown initiated")
				if err := app.ShutdownWithContext(ctx); err != nil {
					logger.ErrorLogger.Error("HTTP server shutdown failed", zap.Error(err))
				}
				if err := archiver.Stop(ctx); err != nil {
					logger.ErrorLogger.Error("Auto-archive shutdown failed", zap.Error(err))
				}
				stopHub()
				if rdb != nil {
					rdb.Close()
				}
				return db.Close()
			},
		},
	)

	exitCode := <-wait
	logger.SystemLogger.Info("Application stopped", zap.Int("exit_code", exitCode))
	logger.SyncLoggers()
	os.Exit(exitCode)
}
