package entity

import (
	"time"

	"github.com/lib/pq"
)

// ScanRecord 相似度扫描审计记录，只保存结果摘要，不保存提交的正文
type ScanRecord struct {
	ID                 string         `json:"id" gorm:"type:uuid;primaryKey"`
	NovelID            string         `json:"novel_id" gorm:"type:uuid;index;not null"`
	InputContentLength int            `json:"input_content_length"`
	MatchCount         int            `json:"match_count"`
	ClearCount         int            `json:"clear_count"`
	RelatedCount       int            `json:"related_count"`
	MatchedChapterIDs  pq.StringArray `json:"matched_chapter_ids" gorm:"type:text[]"`
	MatchedNovelIDs    pq.StringArray `json:"matched_novel_ids" gorm:"type:text[]"`
	ScannedAt          time.Time      `json:"scanned_at" gorm:"index"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ScanRecord) TableName() string {
	return "similarity_scans"
}
