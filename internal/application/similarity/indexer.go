package similarity

import (
	"context"
	"fmt"
	"strings"

	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/pkg/logger"
	"z-novel-similarity/pkg/tracer"
)

// Indexer 维护章节整体向量，并在正文变化时清除分块缓存
type Indexer struct {
	embedder   Embedder
	chapters   ChapterReader
	embeddings ChapterEmbeddingWriter
	chunks     ChunkInvalidator
	tx         Transactor
	model      string
}

func NewIndexer(embedder Embedder, chapters ChapterReader, embeddings ChapterEmbeddingWriter, chunks ChunkInvalidator, model string) *Indexer {
	return &Indexer{
		embedder:   embedder,
		chapters:   chapters,
		embeddings: embeddings,
		chunks:     chunks,
		model:      model,
	}
}

// IndexResult 索引结果
type IndexResult struct {
	ChapterID string `json:"chapter_id"`
	// Status: indexed / unchanged / removed
	Status string `json:"status"`
}

const (
	IndexStatusIndexed   = "indexed"
	IndexStatusUnchanged = "unchanged"
	IndexStatusRemoved   = "removed"
)

func (i *Indexer) IndexChapter(ctx context.Context, chapterID string) (*IndexResult, error) {
	if strings.TrimSpace(chapterID) == "" {
		return nil, fmt.Errorf("chapter_id is required")
	}
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, chapterID)
	ctx, span := tracer.Start(ctx, "similarity.Indexer.IndexChapter")
	defer span.End()

	chapter, err := i.chapters.GetByID(ctx, chapterID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if chapter == nil {
		return nil, ErrChapterNotFound
	}

	normalized := textproc.Normalize(chapter.ContentText)
	if normalized == "" {
		// 空正文不参与比对，同时清理旧向量与分块
		if err := i.RemoveChapter(ctx, chapterID); err != nil {
			return nil, err
		}
		return &IndexResult{ChapterID: chapterID, Status: IndexStatusRemoved}, nil
	}

	hash := textproc.ContentHash(normalized)
	existing, err := i.embeddings.GetByChapterID(ctx, chapterID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if existing != nil && existing.ContentHash == hash && existing.NovelID == chapter.NovelID {
		return &IndexResult{ChapterID: chapterID, Status: IndexStatusUnchanged}, nil
	}

	vectors, err := i.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 text", ErrEmbeddingMismatch, len(vectors))
	}

	record := entity.NewChapterEmbedding(chapterID, chapter.NovelID, vectors[0], hash, i.model)
	if err := i.embeddings.Upsert(ctx, record); err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if err := i.chunks.InvalidateChunks(ctx, chapterID); err != nil {
		// 分块带有正文哈希，残留的旧分块会在下次扫描时被识别并重建
		logger.Warn(ctx, "failed to invalidate chunk cache", "error", err.Error())
	}

	logger.Info(ctx, "chapter indexed", "novel_id", chapter.NovelID, "content_length", len([]rune(normalized)))
	return &IndexResult{ChapterID: chapterID, Status: IndexStatusIndexed}, nil
}

// WithTransactor 删除章节时在同一事务中清理向量与分块
func (i *Indexer) WithTransactor(tx Transactor) *Indexer {
	i.tx = tx
	return i
}

// RemoveChapter 删除章节向量与分块缓存
func (i *Indexer) RemoveChapter(ctx context.Context, chapterID string) error {
	remove := func(ctx context.Context) error {
		if err := i.embeddings.Delete(ctx, chapterID); err != nil {
			return err
		}
		return i.chunks.InvalidateChunks(ctx, chapterID)
	}
	if i.tx == nil {
		return remove(ctx)
	}
	return i.tx.WithTransaction(ctx, remove)
}
