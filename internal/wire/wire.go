//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"z-novel-similarity/internal/config"
	"z-novel-similarity/internal/infrastructure/persistence/postgres"
	"z-novel-similarity/internal/infrastructure/persistence/redis"
	"z-novel-similarity/internal/interfaces/http/middleware"
	"z-novel-similarity/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 服务（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MilvusSet,
		EmbeddingSet,
		IndexerSet,
		DetectorSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeWorker 初始化章节索引与审计消费进程
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		MilvusSet,
		EmbeddingSet,
		IndexerSet,
		ProvideStreamHandler,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化建表与 Milvus 集合所需依赖
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*BootstrapLayer, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewChapterRepository,
		MilvusSet,
		wire.Struct(new(BootstrapLayer), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewChapterRepository,
	postgres.NewChapterEmbeddingRepository,
	postgres.NewChunkEmbeddingRepository,
	postgres.NewScanRecordRepository,
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	ProvideChunkCache,
)

// MilvusSet 可选 Milvus 提供者集合
var MilvusSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideMilvusRepository,
)

// EmbeddingSet 向量化提供者集合
var EmbeddingSet = wire.NewSet(
	ProvideEmbeddingProvider,
	ProvideEmbeddingGateway,
)

// IndexerSet 章节向量存储与索引器
var IndexerSet = wire.NewSet(
	ProvideChapterEmbeddingStore,
	ProvideIndexer,
)

// DetectorSet 扫描编排器及其仅 API 侧使用的依赖
var DetectorSet = wire.NewSet(
	postgres.NewNovelRepository,
	ProvideNovelCache,
	ProvideMessagingProducer,
	ProvideScanPublisher,
	ProvideDetector,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	ProvideHealthHandler,
	ProvideSimilarityHandler,
	router.New,
)
