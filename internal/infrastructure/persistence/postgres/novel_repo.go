package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
)

// NovelRepository 小说仓储实现
type NovelRepository struct {
	client *Client
}

var _ repository.NovelRepository = (*NovelRepository)(nil)

// NewNovelRepository 创建小说仓储
func NewNovelRepository(client *Client) *NovelRepository {
	return &NovelRepository{client: client}
}

// GetByID 根据 ID 获取小说
func (r *NovelRepository) GetByID(ctx context.Context, id string) (*entity.Novel, error) {
	ctx, span := tracer.Start(ctx, "postgres.NovelRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var novel entity.Novel
	if err := db.First(&novel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get novel: %w", err)
	}
	return &novel, nil
}
