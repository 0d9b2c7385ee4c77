package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "hookrun/configs"
	"hookrun/pkg/api"
	"hookrun/pkg/auth"
	"hookrun/pkg/coordination/etcd"
	"hookrun/pkg/logger"
	tracing "hookrun/pkg/observability"
	"hookrun/pkg/storage/redis"
)

func main() {
	cfg := config.LoadConfig()

	logCfg := logger.DefaultConfig("hookrun-api")
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

	tp, err := tracing.Init(ctx, tracing.DefaultConfig("hookrun-api"))
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
	zl.Info("redis connected", zap.String("addr", cfg.RedisAddr()))

	coord, err := etcd.NewEtcdCoordinator(cfg.EtcdEndpoints)
	if err != nil {
		zl.Fatal("failed to connect to etcd", zap.Error(err))
	}
	defer coord.Close()
	zl.Info("etcd connected")

	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		jwtCfg := auth.DefaultJWTConfig()
		jwtCfg.SecretKey = cfg.JWTSecret
		jwtService, err = auth.NewJWTService(jwtCfg)
		if err != nil {
			zl.Fatal("failed to initialize JWT service", zap.Error(err))
		}
	} else {
		zl.Warn("JWT_SECRET not set, trigger API is unauthenticated")
	}

	var keyStore auth.APIKeyStore
	if jwtService != nil {
		keyStore = auth.NewRedisAPIKeyStore(queue.Client())
	}

	server := api.NewServer(api.Config{
		Port:        cfg.APIPort,
		Queue:       queue,
		Coordinator: coord,
		JWTService:  jwtService,
		APIKeyStore: keyStore,
		Logger:      zl,
	})

	go func() {
		if err := server.Start(); err != nil {
			zl.Error("server error", zap.Error(err))
		}
	}()

	sig := <-sigChan
	zl.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}
