package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
	"z-novel-similarity/pkg/logger"
	"z-novel-similarity/pkg/metrics"
)

// cachedChunk Redis 中的分块序列化格式
type cachedChunk struct {
	Index  int       `json:"i"`
	Text   string    `json:"t"`
	Vector []float32 `json:"v"`
	Hash   string    `json:"h"`
}

// ChunkCache 分块向量的两级缓存：Redis 在前，Postgres 为持久层
// ttl 为 0 时只读写 Postgres
type ChunkCache struct {
	cache *Cache
	repo  repository.ChunkEmbeddingRepository
	ttl   time.Duration
}

// NewChunkCache 创建分块缓存
func NewChunkCache(cache *Cache, repo repository.ChunkEmbeddingRepository, ttl time.Duration) *ChunkCache {
	return &ChunkCache{cache: cache, repo: repo, ttl: ttl}
}

// GetChunks 读取章节分块，未命中时返回空切片
func (c *ChunkCache) GetChunks(ctx context.Context, chapterID string) ([]*entity.ChunkEmbedding, error) {
	if c.redisEnabled() {
		raw, err := c.cache.Get(ctx, chunkKey(chapterID))
		switch {
		case err == nil:
			rows, decErr := decodeChunks(chapterID, raw)
			if decErr == nil {
				metrics.ChunkCacheRequests.WithLabelValues("redis", "hit").Inc()
				return rows, nil
			}
			logger.Warn(ctx, "discarding undecodable chunk cache entry",
				"chapter_id", chapterID, "error", decErr.Error())
		case IsNil(err):
			metrics.ChunkCacheRequests.WithLabelValues("redis", "miss").Inc()
		default:
			// Redis 故障时降级到 Postgres
			metrics.ChunkCacheRequests.WithLabelValues("redis", "error").Inc()
			logger.Warn(ctx, "chunk cache read failed", "chapter_id", chapterID, "error", err.Error())
		}
	}

	rows, err := c.repo.ListByChapter(ctx, chapterID)
	if err != nil {
		metrics.ChunkCacheRequests.WithLabelValues("postgres", "error").Inc()
		return nil, err
	}
	if len(rows) == 0 {
		metrics.ChunkCacheRequests.WithLabelValues("postgres", "miss").Inc()
		return rows, nil
	}
	metrics.ChunkCacheRequests.WithLabelValues("postgres", "hit").Inc()

	if c.redisEnabled() {
		c.fill(ctx, chapterID, rows)
	}
	return rows, nil
}

// SaveChunks 整体替换章节分块，先写 Postgres 再回填 Redis
func (c *ChunkCache) SaveChunks(ctx context.Context, chapterID, novelID, contentHash string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("chunk texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}

	now := time.Now()
	rows := make([]*entity.ChunkEmbedding, len(texts))
	for i := range texts {
		rows[i] = &entity.ChunkEmbedding{
			ID:          uuid.NewString(),
			ChapterID:   chapterID,
			NovelID:     novelID,
			ChunkIndex:  i,
			ChunkText:   texts[i],
			Vector:      pgvector.NewVector(vectors[i]),
			ContentHash: contentHash,
			CreatedAt:   now,
		}
	}

	if err := c.repo.ReplaceForChapter(ctx, chapterID, rows); err != nil {
		return err
	}

	if c.redisEnabled() {
		c.fill(ctx, chapterID, rows)
	}
	return nil
}

// InvalidateChunks 删除章节分块的持久数据与缓存
func (c *ChunkCache) InvalidateChunks(ctx context.Context, chapterID string) error {
	if err := c.repo.DeleteByChapter(ctx, chapterID); err != nil {
		return err
	}
	if c.redisEnabled() {
		if err := c.cache.Delete(ctx, chunkKey(chapterID)); err != nil {
			return fmt.Errorf("failed to delete chunk cache: %w", err)
		}
	}
	return nil
}

func (c *ChunkCache) redisEnabled() bool {
	return c.cache != nil && c.ttl > 0
}

// fill 回填失败只记录日志
func (c *ChunkCache) fill(ctx context.Context, chapterID string, rows []*entity.ChunkEmbedding) {
	if err := c.cache.Set(ctx, chunkKey(chapterID), encodeChunks(rows), c.ttl); err != nil {
		logger.Warn(ctx, "chunk cache write failed", "chapter_id", chapterID, "error", err.Error())
	}
}

func chunkKey(chapterID string) string {
	return "similarity:chunks:" + chapterID
}

func encodeChunks(rows []*entity.ChunkEmbedding) []cachedChunk {
	out := make([]cachedChunk, len(rows))
	for i, row := range rows {
		out[i] = cachedChunk{
			Index:  row.ChunkIndex,
			Text:   row.ChunkText,
			Vector: row.Embedding(),
			Hash:   row.ContentHash,
		}
	}
	return out
}

func decodeChunks(chapterID string, raw []byte) ([]*entity.ChunkEmbedding, error) {
	var cached []cachedChunk
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk cache: %w", err)
	}
	rows := make([]*entity.ChunkEmbedding, len(cached))
	for i, c := range cached {
		rows[i] = &entity.ChunkEmbedding{
			ChapterID:   chapterID,
			ChunkIndex:  c.Index,
			ChunkText:   c.Text,
			Vector:      pgvector.NewVector(c.Vector),
			ContentHash: c.Hash,
		}
	}
	return rows, nil
}
