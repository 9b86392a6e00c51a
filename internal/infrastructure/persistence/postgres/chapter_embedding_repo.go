package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
)

// ChapterEmbeddingRepository 章节整体向量仓储（pgvector）
type ChapterEmbeddingRepository struct {
	client *Client
}

var _ repository.ChapterEmbeddingRepository = (*ChapterEmbeddingRepository)(nil)

// NewChapterEmbeddingRepository 创建章节向量仓储
func NewChapterEmbeddingRepository(client *Client) *ChapterEmbeddingRepository {
	return &ChapterEmbeddingRepository{client: client}
}

// ListAll 读取全部章节向量，按小说与章节序号排序，保证快照顺序稳定
func (r *ChapterEmbeddingRepository) ListAll(ctx context.Context) ([]*entity.ChapterEmbedding, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterEmbeddingRepository.ListAll")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []*entity.ChapterEmbedding
	err := db.Table("chapter_embeddings AS ce").
		Select("ce.chapter_id, ce.novel_id, ce.vector, ce.content_hash, ce.model, ce.updated_at, c.title, c.slug, c.seq_num").
		Joins("JOIN chapters c ON c.id = ce.chapter_id").
		Order("ce.novel_id ASC, c.seq_num ASC, ce.chapter_id ASC").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapter embeddings: %w", err)
	}
	return rows, nil
}

// ListChapterEmbeddings 供相似度检测读取候选快照
func (r *ChapterEmbeddingRepository) ListChapterEmbeddings(ctx context.Context) ([]*entity.ChapterEmbedding, error) {
	return r.ListAll(ctx)
}

// GetByChapterID 获取单个章节向量
func (r *ChapterEmbeddingRepository) GetByChapterID(ctx context.Context, chapterID string) (*entity.ChapterEmbedding, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterEmbeddingRepository.GetByChapterID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var row entity.ChapterEmbedding
	if err := db.First(&row, "chapter_id = ?", chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter embedding: %w", err)
	}
	return &row, nil
}

// Upsert 写入或覆盖章节向量
func (r *ChapterEmbeddingRepository) Upsert(ctx context.Context, embedding *entity.ChapterEmbedding) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterEmbeddingRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chapter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"novel_id", "vector", "content_hash", "model", "updated_at"}),
	}).Create(embedding).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert chapter embedding: %w", err)
	}
	return nil
}

// Delete 删除章节向量
func (r *ChapterEmbeddingRepository) Delete(ctx context.Context, chapterID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterEmbeddingRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.ChapterEmbedding{}, "chapter_id = ?", chapterID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter embedding: %w", err)
	}
	return nil
}
