package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/domain/repository"
)

// ScanRecordRepository 扫描审计记录仓储
type ScanRecordRepository struct {
	client *Client
}

var _ repository.ScanRecordRepository = (*ScanRecordRepository)(nil)

// NewScanRecordRepository 创建扫描记录仓储
func NewScanRecordRepository(client *Client) *ScanRecordRepository {
	return &ScanRecordRepository{client: client}
}

// Create 写入扫描记录，消息重投时按 ID 去重
func (r *ScanRecordRepository) Create(ctx context.Context, record *entity.ScanRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ScanRecordRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create scan record: %w", err)
	}
	return nil
}

// ListByNovel 按时间倒序获取小说的扫描记录
func (r *ScanRecordRepository) ListByNovel(ctx context.Context, novelID string, limit int) ([]*entity.ScanRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScanRecordRepository.ListByNovel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var records []*entity.ScanRecord
	if err := db.Where("novel_id = ?", novelID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scan records: %w", err)
	}
	return records, nil
}

// ListMatchingChapter 获取命中指定章节的扫描记录
func (r *ScanRecordRepository) ListMatchingChapter(ctx context.Context, chapterID string, limit int) ([]*entity.ScanRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ScanRecordRepository.ListMatchingChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var records []*entity.ScanRecord
	if err := db.Where("? = ANY(matched_chapter_ids)", chapterID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scan records by chapter: %w", err)
	}
	return records, nil
}
