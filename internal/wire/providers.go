// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"strings"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/config"
	"z-novel-similarity/internal/infrastructure/eino/callback"
	"z-novel-similarity/internal/infrastructure/embedding"
	"z-novel-similarity/internal/infrastructure/messaging"
	"z-novel-similarity/internal/infrastructure/persistence/milvus"
	"z-novel-similarity/internal/infrastructure/persistence/postgres"
	"z-novel-similarity/internal/infrastructure/persistence/redis"
	"z-novel-similarity/internal/interfaces/http/handler"
	"z-novel-similarity/internal/interfaces/stream"
)

const (
	VectorBackendPostgres = "postgres"
	VectorBackendMilvus   = "milvus"

	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderHTTP   = "http"
)

// ChapterEmbeddingStore 章节整体向量存储，Postgres 与 Milvus 两种后端均实现
type ChapterEmbeddingStore interface {
	similarity.CandidateSource
	similarity.ChapterEmbeddingWriter
}

// Worker 异步消费进程依赖
type Worker struct {
	RedisClient *redis.Client
	Handler     *stream.Handler
}

// BootstrapLayer 初始化数据库结构所需依赖，MilvusRepo 在 postgres 后端下为 nil
type BootstrapLayer struct {
	PgClient   *postgres.Client
	MilvusRepo *milvus.Repository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClient 仅在向量后端为 milvus 时连接，否则返回 nil
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if !strings.EqualFold(cfg.Vector.Backend, VectorBackendMilvus) {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepository milvus 后端未启用时返回 nil
func ProvideMilvusRepository(client *milvus.Client, chapters *postgres.ChapterRepository, cfg *config.Config) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client, chapters, cfg.Embedding.Dimension)
}

// ProvideChapterEmbeddingStore 按配置选择章节向量后端
func ProvideChapterEmbeddingStore(pgRepo *postgres.ChapterEmbeddingRepository, milvusRepo *milvus.Repository) ChapterEmbeddingStore {
	if milvusRepo != nil {
		return milvusRepo
	}
	return pgRepo
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideScanPublisher 未开启审计投递时返回 nil
func ProvideScanPublisher(producer *messaging.Producer, cfg *config.Config) similarity.ScanPublisher {
	if !cfg.Messaging.RedisStream.PublishAudit {
		return nil
	}
	return producer
}

// ProvideEmbeddingProvider 按配置选择向量化服务
func ProvideEmbeddingProvider(ctx context.Context, cfg *config.Config) (embedding.Provider, error) {
	switch strings.ToLower(cfg.Embedding.Provider) {
	case EmbeddingProviderOpenAI:
		embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
		if err != nil {
			return nil, err
		}
		return embedding.NewEinoProvider(embedder, callback.NewHandler()), nil
	case EmbeddingProviderHTTP:
		if cfg.Embedding.Endpoint == "" {
			return nil, fmt.Errorf("embedding endpoint is required for http provider")
		}
		return embedding.NewClient(&cfg.Embedding), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Embedding.Provider)
	}
}

// ProvideEmbeddingGateway 包装向量化服务，统一分批与维度校验
func ProvideEmbeddingGateway(provider embedding.Provider, cfg *config.Config) *embedding.Gateway {
	return embedding.NewGateway(provider, strings.ToLower(cfg.Embedding.Provider), &cfg.Embedding)
}

// ProvideChunkCache 提供分块向量缓存
func ProvideChunkCache(cache *redis.Cache, repo *postgres.ChunkEmbeddingRepository, cfg *config.Config) *redis.ChunkCache {
	return redis.NewChunkCache(cache, repo, cfg.Cache.ChunkTTL)
}

// ProvideNovelCache 提供小说元数据缓存
func ProvideNovelCache(cache *redis.Cache, repo *postgres.NovelRepository, cfg *config.Config) *redis.NovelCache {
	return redis.NewNovelCache(cache, repo, cfg.Cache.NovelTTL)
}

// ProvideDetector 提供扫描编排器
func ProvideDetector(
	embedder *embedding.Gateway,
	store ChapterEmbeddingStore,
	chapters *postgres.ChapterRepository,
	novels *redis.NovelCache,
	chunks *redis.ChunkCache,
	publisher similarity.ScanPublisher,
	cfg *config.Config,
) *similarity.Detector {
	return similarity.NewDetector(embedder, store, chapters, novels, chunks, publisher,
		similarity.ConfigFromSettings(&cfg.Similarity))
}

// ProvideIndexer 提供章节索引器
func ProvideIndexer(
	embedder *embedding.Gateway,
	chapters *postgres.ChapterRepository,
	store ChapterEmbeddingStore,
	chunks *redis.ChunkCache,
	txMgr *postgres.TxManager,
	cfg *config.Config,
) *similarity.Indexer {
	return similarity.NewIndexer(embedder, chapters, store, chunks, cfg.Embedding.Model).WithTransactor(txMgr)
}

// ProvideHealthHandler Postgres 与 Redis 为必需依赖，Milvus 仅影响降级状态
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client, mv *milvus.Client) *handler.HealthHandler {
	required := map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rdb,
	}
	var optional map[string]handler.HealthChecker
	if mv != nil {
		optional = map[string]handler.HealthChecker{"milvus": mv}
	}
	return handler.NewHealthHandler(cfg.App.Version, required, optional)
}

// ProvideSimilarityHandler 提供相似度检测处理器
func ProvideSimilarityHandler(
	detector *similarity.Detector,
	indexer *similarity.Indexer,
	scans *postgres.ScanRecordRepository,
	producer *messaging.Producer,
	cfg *config.Config,
) *handler.SimilarityHandler {
	return handler.NewSimilarityHandler(detector, indexer, scans, cfg.Server.HTTP.ScanTimeout).
		WithIndexQueue(producer)
}

// ProvideStreamHandler 提供 Redis Streams 消息处理器
func ProvideStreamHandler(indexer *similarity.Indexer, scans *postgres.ScanRecordRepository) *stream.Handler {
	return stream.NewHandler(indexer, scans)
}

// ProvideConsumerConfig 构建消费者配置，消费者名由前缀与主机名组成
func ProvideConsumerConfig(cfg *config.Config, s messaging.Stream, group messaging.ConsumerGroup, hostname string) messaging.ConsumerConfig {
	rs := cfg.Messaging.RedisStream
	name := hostname
	if rs.ConsumerGroupPrefix != "" {
		name = rs.ConsumerGroupPrefix + "-" + hostname
	}
	return messaging.ConsumerConfig{
		Stream:        s,
		Group:         group,
		ConsumerName:  name,
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	}
}
