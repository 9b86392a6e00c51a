package postgres

import (
	"context"
	"fmt"

	"z-novel-similarity/internal/domain/entity"
)

// Migrate 创建 pgvector 扩展并同步表结构，dimension 用于固定向量列维度
func (c *Client) Migrate(ctx context.Context, dimension int) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := c.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&entity.Novel{},
		&entity.Chapter{},
		&entity.ChapterEmbedding{},
		&entity.ChunkEmbedding{},
		&entity.ScanRecord{},
	); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if dimension > 0 {
		for _, table := range []string{"chapter_embeddings", "chunk_embeddings"} {
			stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN vector TYPE vector(%d)", table, dimension)
			if err := db.Exec(stmt).Error; err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to set vector dimension on %s: %w", table, err)
			}
		}
	}
	return nil
}
