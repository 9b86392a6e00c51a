package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
)

const chunkInsertBatch = 100

// ChunkEmbeddingRepository 章节分块向量仓储
type ChunkEmbeddingRepository struct {
	client *Client
}

var _ repository.ChunkEmbeddingRepository = (*ChunkEmbeddingRepository)(nil)

// NewChunkEmbeddingRepository 创建分块向量仓储
func NewChunkEmbeddingRepository(client *Client) *ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepository{client: client}
}

// ListByChapter 按 chunk_index 升序获取章节分块
func (r *ChunkEmbeddingRepository) ListByChapter(ctx context.Context, chapterID string) ([]*entity.ChunkEmbedding, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkEmbeddingRepository.ListByChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chunks []*entity.ChunkEmbedding
	if err := db.Where("chapter_id = ?", chapterID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chunk embeddings: %w", err)
	}
	return chunks, nil
}

// ReplaceForChapter 按 (chapter_id, chunk_index) 覆盖写入并删除多余分块
// 并发写入同一章节时唯一约束保证结果不重复
func (r *ChunkEmbeddingRepository) ReplaceForChapter(ctx context.Context, chapterID string, chunks []*entity.ChunkEmbedding) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkEmbeddingRepository.ReplaceForChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(chunks) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "chapter_id"}, {Name: "chunk_index"}},
				DoUpdates: clause.AssignmentColumns([]string{"novel_id", "chunk_text", "vector", "content_hash", "created_at"}),
			}).CreateInBatches(chunks, chunkInsertBatch).Error; err != nil {
				return err
			}
		}
		return tx.Where("chapter_id = ? AND chunk_index >= ?", chapterID, len(chunks)).
			Delete(&entity.ChunkEmbedding{}).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace chunk embeddings: %w", err)
	}
	return nil
}

// DeleteByChapter 删除章节全部分块
func (r *ChunkEmbeddingRepository) DeleteByChapter(ctx context.Context, chapterID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkEmbeddingRepository.DeleteByChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("chapter_id = ?", chapterID).Delete(&entity.ChunkEmbedding{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunk embeddings: %w", err)
	}
	return nil
}
