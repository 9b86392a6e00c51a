package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ChapterEmbedding 章节整体向量，每个已索引章节一条
// Title、Slug、SeqNum 由查询时关联 chapters 表填充，不参与迁移
type ChapterEmbedding struct {
	ChapterID   string          `json:"chapter_id" gorm:"type:uuid;primaryKey"`
	NovelID     string          `json:"novel_id" gorm:"type:uuid;index;not null"`
	Vector      pgvector.Vector `json:"-" gorm:"type:vector;not null"`
	ContentHash string          `json:"content_hash" gorm:"type:char(64)"`
	Model       string          `json:"model,omitempty" gorm:"type:varchar(128)"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Title  string `json:"title,omitempty" gorm:"->;-:migration"`
	Slug   string `json:"slug,omitempty" gorm:"->;-:migration"`
	SeqNum int    `json:"seq_num,omitempty" gorm:"->;-:migration"`
}

// TableName 指定表名
func (ChapterEmbedding) TableName() string {
	return "chapter_embeddings"
}

// NewChapterEmbedding 创建章节向量记录
func NewChapterEmbedding(chapterID, novelID string, vector []float32, contentHash, model string) *ChapterEmbedding {
	return &ChapterEmbedding{
		ChapterID:   chapterID,
		NovelID:     novelID,
		Vector:      pgvector.NewVector(vector),
		ContentHash: contentHash,
		Model:       model,
		UpdatedAt:   time.Now(),
	}
}

// Embedding 返回向量切片
func (e *ChapterEmbedding) Embedding() []float32 {
	return e.Vector.Slice()
}
