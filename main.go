package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/classifier"
	"phishguard/internal/config"
	"phishguard/internal/notifier"
	"phishguard/internal/repository"
	"phishguard/internal/server"
	"phishguard/internal/service"
	"phishguard/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repository.MigrateDB(db, logger)

	store := repository.NewStore(db, logger)

	clf := classifier.Load(cfg.Model.ArtifactPath, cfg.Model.Version, logger)

	var alerts service.Notifier
	if tg, err := notifier.New(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize telegram notifier", zap.Error(err))
	} else if tg != nil {
		alerts = tg
	}

	var uploader service.Uploader
	if cfg.Export.Enabled {
		exportStore, err := storage.New(context.Background(),
			cfg.Export.Endpoint, cfg.Export.Region, cfg.Export.Bucket,
			cfg.Export.AccessKey, cfg.Export.SecretKey, cfg.Export.UseSSL)
		if err != nil {
			logger.Fatal("Failed to initialize export storage", zap.Error(err))
		}
		uploader = exportStore
	}

	srv := server.NewServer(store, cfg, clf, alerts, uploader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Server.Port)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}
}
