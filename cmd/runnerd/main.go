package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "hookrun/configs"
	"hookrun/pkg/callback"
	"hookrun/pkg/coordination/etcd"
	"hookrun/pkg/janitor"
	"hookrun/pkg/logger"
	tracing "hookrun/pkg/observability"
	"hookrun/pkg/pipeline"
	"hookrun/pkg/storage"
	"hookrun/pkg/storage/redis"
	"hookrun/pkg/worker"
)

func main() {
	cfg := config.LoadConfig()

	logCfg := logger.DefaultConfig("hookrun-runnerd")
	logCfg.Level = cfg.LogLevel
	zl, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zl.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	tp, err := tracing.Init(ctx, tracing.DefaultConfig("hookrun-runnerd"))
	if err != nil {
		zl.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	queue, err := redis.NewRedisQueue(cfg.RedisAddr())
	if err != nil {
		zl.Fatal("failed to initialize redis queue", zap.Error(err))
	}
	defer queue.Close()

	coord, err := etcd.NewEtcdCoordinator(cfg.EtcdEndpoints)
	if err != nil {
		zl.Fatal("failed to connect to etcd", zap.Error(err))
	}
	defer coord.Close()

	var archive storage.ArchiveStore
	if cfg.ArchiveEnabled {
		if cfg.ArchiveBucket != "" {
			archive, err = storage.NewS3ArchiveStore(storage.S3ArchiveConfig{
				Bucket:   cfg.ArchiveBucket,
				Prefix:   "logs/runs/",
				Region:   cfg.ArchiveRegion,
				Endpoint: cfg.ArchiveEndpoint,
			})
		} else {
			archive, err = storage.NewLocalArchiveStore(cfg.ArchiveDir)
		}
		if err != nil {
			zl.Fatal("failed to initialize archive store", zap.Error(err))
		}
	}

	dispatcher := callback.NewDispatcher(nil, nil)
	pipe := pipeline.New(dispatcher, zl)

	jan := janitor.New(cfg.WorkspaceRoot, cfg.JanitorRetention, cfg.JanitorSchedule, zl)
	if err := jan.Start(); err != nil {
		zl.Fatal("failed to start workspace janitor", zap.Error(err))
	}
	defer jan.Stop()

	w := worker.New(cfg, coord, queue, pipe, archive, zl)
	w.Start(ctx)
}
