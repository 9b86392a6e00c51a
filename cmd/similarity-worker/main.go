// Package main 章节索引与扫描审计消费进程入口
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"z-novel-similarity/internal/config"
	"z-novel-similarity/internal/infrastructure/messaging"
	"z-novel-similarity/internal/wire"
	"z-novel-similarity/pkg/logger"
	"z-novel-similarity/pkg/tracer"
)

const dlqAlertThreshold = 100

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "similarity-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
		Insecure:    cfg.Observability.Tracing.Insecure,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	host := hostname()
	rdb := worker.RedisClient.Redis()

	indexConsumer := messaging.NewConsumer(rdb,
		wire.ProvideConsumerConfig(cfg, messaging.StreamChapterUpdated, messaging.ConsumerGroupIndexer, host))
	worker.Handler.RegisterIndexer(indexConsumer)

	auditConsumer := messaging.NewConsumer(rdb,
		wire.ProvideConsumerConfig(cfg, messaging.StreamSimilarityAudit, messaging.ConsumerGroupAuditWriter, host))
	worker.Handler.RegisterAudit(auditConsumer)

	for _, c := range []*messaging.Consumer{indexConsumer, auditConsumer} {
		if err := c.Start(ctx); err != nil {
			logger.Fatal(ctx, "failed to start consumer", err)
		}
		go c.MonitorDLQ(ctx, dlqAlertThreshold)
	}

	logger.Info(ctx, "similarity-worker started", "consumer", host)
	<-ctx.Done()

	logger.Info(context.Background(), "shutting down similarity-worker...")
	indexConsumer.Stop()
	auditConsumer.Stop()
	logger.Info(context.Background(), "similarity-worker exited")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "similarity-worker"
	}
	return name
}
