package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
	"z-novel-similarity/pkg/logger"
	"z-novel-similarity/pkg/metrics"
)

// NovelCache 小说元数据的 Read-Through 缓存
type NovelCache struct {
	cache *Cache
	repo  repository.NovelRepository
	ttl   time.Duration
}

// NewNovelCache 创建小说元数据缓存
func NewNovelCache(cache *Cache, repo repository.NovelRepository, ttl time.Duration) *NovelCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &NovelCache{cache: cache, repo: repo, ttl: ttl}
}

// GetNovelMetadata 获取小说标题与 slug，小说不存在时返回 nil, nil 且不写入缓存
// Redis 故障时直接读取 Postgres
func (c *NovelCache) GetNovelMetadata(ctx context.Context, novelID string) (*entity.Novel, error) {
	raw, err := c.cache.GetOrLoadSafe(ctx, novelKey(novelID), c.ttl, func() (interface{}, error) {
		novel, err := c.repo.GetByID(ctx, novelID)
		if err != nil {
			return nil, &novelLoadError{err: err}
		}
		if novel == nil {
			return nil, errNovelMissing
		}
		return novel, nil
	})
	if err != nil {
		if errors.Is(err, errNovelMissing) {
			metrics.NovelCacheRequests.WithLabelValues("postgres", "miss").Inc()
			return nil, nil
		}
		var loadErr *novelLoadError
		if errors.As(err, &loadErr) {
			metrics.NovelCacheRequests.WithLabelValues("postgres", "error").Inc()
			return nil, loadErr.err
		}
		metrics.NovelCacheRequests.WithLabelValues("redis", "error").Inc()
		logger.Warn(ctx, "novel cache read failed", "novel_id", novelID, "error", err.Error())
		return c.repo.GetByID(ctx, novelID)
	}

	var novel entity.Novel
	if err := json.Unmarshal(raw, &novel); err != nil {
		logger.Warn(ctx, "discarding undecodable novel cache entry", "novel_id", novelID, "error", err.Error())
		return c.repo.GetByID(ctx, novelID)
	}
	metrics.NovelCacheRequests.WithLabelValues("redis", "ok").Inc()
	return &novel, nil
}

// novelLoadError 区分 Postgres 读取失败与 Redis 故障
type novelLoadError struct {
	err error
}

func (e *novelLoadError) Error() string { return e.err.Error() }

func (e *novelLoadError) Unwrap() error { return e.err }

var errNovelMissing = errors.New("novel not found")

func novelKey(novelID string) string {
	return "similarity:novel:" + novelID
}
