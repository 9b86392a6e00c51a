// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

var _ repository.ChapterRepository = (*ChapterRepository)(nil)

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// GetChapterRawContent 只读取正文列，章节不存在时返回 "", nil
func (r *ChapterRepository) GetChapterRawContent(ctx context.Context, id string) (string, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetChapterRawContent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var contents []string
	if err := db.Model(&entity.Chapter{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("content_text", &contents).Error; err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to get chapter content: %w", err)
	}
	if len(contents) == 0 {
		return "", nil
	}
	return contents[0], nil
}

// GetTitles 批量读取章节标题、slug 与序号，不加载正文
func (r *ChapterRepository) GetTitles(ctx context.Context, ids []string) (map[string]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetTitles")
	defer span.End()

	out := make(map[string]*entity.Chapter, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Select("id", "novel_id", "seq_num", "title", "slug").
		Where("id = ANY(?)", pq.Array(ids)).
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter titles: %w", err)
	}
	for _, ch := range chapters {
		out[ch.ID] = ch
	}
	return out, nil
}
