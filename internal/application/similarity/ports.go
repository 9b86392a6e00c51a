package similarity

import (
	"context"

	"z-novel-similarity/internal/domain/entity"
)

// Embedder 文本向量化端口，返回的向量与输入一一对应且顺序一致
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// CandidateSource 章节整体向量快照（含章节标题与 slug）
type CandidateSource interface {
	ListChapterEmbeddings(ctx context.Context) ([]*entity.ChapterEmbedding, error)
}

// ContentSource 候选章节原始正文，章节不存在时返回 "", nil
type ContentSource interface {
	GetChapterRawContent(ctx context.Context, chapterID string) (string, error)
}

// NovelSource 小说元数据，不存在时返回 nil, nil
type NovelSource interface {
	GetNovelMetadata(ctx context.Context, novelID string) (*entity.Novel, error)
}

// ChunkStore 分块向量缓存，未命中时 GetChunks 返回空切片
// SaveChunks 对同一章节整体替换，重复或并发调用结果一致
type ChunkStore interface {
	GetChunks(ctx context.Context, chapterID string) ([]*entity.ChunkEmbedding, error)
	SaveChunks(ctx context.Context, chapterID, novelID, contentHash string, texts []string, vectors [][]float32) error
}

// ChunkInvalidator 章节正文变更后清除分块缓存
type ChunkInvalidator interface {
	InvalidateChunks(ctx context.Context, chapterID string) error
}

// ScanPublisher 扫描完成事件投递，可选
type ScanPublisher interface {
	PublishScanCompleted(ctx context.Context, novelID string, result *ScanResult) error
}

// ChapterReader 索引器读取章节
type ChapterReader interface {
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)
}

// ChapterEmbeddingWriter 索引器写入章节整体向量
type ChapterEmbeddingWriter interface {
	GetByChapterID(ctx context.Context, chapterID string) (*entity.ChapterEmbedding, error)
	Upsert(ctx context.Context, embedding *entity.ChapterEmbedding) error
	Delete(ctx context.Context, chapterID string) error
}

// Transactor 在同一事务中执行多个写操作，可选
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
