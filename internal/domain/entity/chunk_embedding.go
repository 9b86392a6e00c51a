package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ChunkEmbedding 章节分块向量缓存
// (chapter_id, chunk_index) 唯一，保证并发写入不会产生重复分块
type ChunkEmbedding struct {
	ID          string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChapterID   string          `json:"chapter_id" gorm:"type:uuid;not null;uniqueIndex:idx_chunk_embeddings_chapter_chunk,priority:1"`
	NovelID     string          `json:"novel_id" gorm:"type:uuid;index;not null"`
	ChunkIndex  int             `json:"chunk_index" gorm:"not null;uniqueIndex:idx_chunk_embeddings_chapter_chunk,priority:2"`
	ChunkText   string          `json:"chunk_text" gorm:"type:text;not null"`
	Vector      pgvector.Vector `json:"-" gorm:"type:vector;not null"`
	ContentHash string          `json:"content_hash" gorm:"type:char(64)"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}

// Embedding 返回向量切片
func (c *ChunkEmbedding) Embedding() []float32 {
	return c.Vector.Slice()
}
