package similarity

import "errors"

var (
	// ErrProviderFailure 输入文本向量化失败，整次扫描失败
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrCandidateSnapshot 无法读取候选章节向量快照
	ErrCandidateSnapshot = errors.New("failed to load chapter embeddings")

	// ErrChapterNotFound 索引的章节不存在
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrEmbeddingMismatch 向量数量与文本数量不一致
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
