package entity

import "time"

// Novel 小说实体，扫描结果只使用 Title 与 Slug 作为标注
type Novel struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Novel) TableName() string {
	return "novels"
}
