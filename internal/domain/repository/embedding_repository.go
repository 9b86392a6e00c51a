package repository

import (
	"context"

	"z-novel-similarity/internal/domain/entity"
)

// ChapterEmbeddingRepository 章节整体向量仓储
type ChapterEmbeddingRepository interface {
	// ListAll 读取全部章节向量（含章节标题与 slug）
	ListAll(ctx context.Context) ([]*entity.ChapterEmbedding, error)

	// GetByChapterID 获取单个章节向量，不存在时返回 nil, nil
	GetByChapterID(ctx context.Context, chapterID string) (*entity.ChapterEmbedding, error)

	// Upsert 写入或覆盖章节向量
	Upsert(ctx context.Context, embedding *entity.ChapterEmbedding) error

	// Delete 删除章节向量
	Delete(ctx context.Context, chapterID string) error
}

// ChunkEmbeddingRepository 章节分块向量仓储
type ChunkEmbeddingRepository interface {
	// ListByChapter 按 chunk_index 升序获取章节分块
	ListByChapter(ctx context.Context, chapterID string) ([]*entity.ChunkEmbedding, error)

	// ReplaceForChapter 以整体替换方式写入章节分块（幂等）
	ReplaceForChapter(ctx context.Context, chapterID string, chunks []*entity.ChunkEmbedding) error

	// DeleteByChapter 删除章节全部分块
	DeleteByChapter(ctx context.Context, chapterID string) error
}

// ScanRecordRepository 扫描审计记录仓储
type ScanRecordRepository interface {
	// Create 写入扫描记录，ID 已存在时忽略
	Create(ctx context.Context, record *entity.ScanRecord) error

	// ListByNovel 按时间倒序获取小说的扫描记录
	ListByNovel(ctx context.Context, novelID string, limit int) ([]*entity.ScanRecord, error)

	// ListMatchingChapter 获取命中指定章节的扫描记录
	ListMatchingChapter(ctx context.Context, chapterID string, limit int) ([]*entity.ScanRecord, error)
}
