// Package entity 定义领域实体
package entity

import (
	"time"
)

// Chapter 章节实体，content_text 保存原始（可含标记的）正文
type Chapter struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NovelID     string    `json:"novel_id" gorm:"type:uuid;index;not null"`
	SeqNum      int       `json:"seq_num" gorm:"not null"`
	Title       string    `json:"title,omitempty" gorm:"type:varchar(255)"`
	Slug        string    `json:"slug,omitempty" gorm:"type:varchar(255);index"`
	ContentText string    `json:"content_text,omitempty" gorm:"type:text"`
	WordCount   int       `json:"word_count" gorm:"default:0"`
	Version     int       `json:"version" gorm:"default:1"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}
