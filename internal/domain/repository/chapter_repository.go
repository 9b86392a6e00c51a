// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-novel-similarity/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// GetByID 根据 ID 获取章节，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// GetChapterRawContent 获取章节原始正文，不存在时返回 "", nil
	GetChapterRawContent(ctx context.Context, id string) (string, error)

	// GetTitles 批量获取章节标题与 slug，不加载正文
	GetTitles(ctx context.Context, ids []string) (map[string]*entity.Chapter, error)
}

// NovelRepository 小说仓储接口
type NovelRepository interface {
	// GetByID 根据 ID 获取小说，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Novel, error)
}
