// Package stream 提供 Redis Streams 消息处理器
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/infrastructure/messaging"
	"z-novel-similarity/pkg/logger"
)

// ChapterIndexer 章节索引
type ChapterIndexer interface {
	IndexChapter(ctx context.Context, chapterID string) (*similarity.IndexResult, error)
	RemoveChapter(ctx context.Context, chapterID string) error
}

// ScanRecorder 扫描审计记录写入
type ScanRecorder interface {
	Create(ctx context.Context, record *entity.ScanRecord) error
}

// Handler 消费章节变更与扫描审计事件
type Handler struct {
	indexer ChapterIndexer
	records ScanRecorder
}

// NewHandler 创建消息处理器
func NewHandler(indexer ChapterIndexer, records ScanRecorder) *Handler {
	return &Handler{indexer: indexer, records: records}
}

// RegisterIndexer 注册章节变更处理
func (h *Handler) RegisterIndexer(c *messaging.Consumer) {
	c.RegisterHandler(messaging.TypeChapterContentUpdated, h.HandleChapterUpdated)
	c.RegisterHandler(messaging.TypeChapterDeleted, h.HandleChapterDeleted)
}

// RegisterAudit 注册扫描审计处理
func (h *Handler) RegisterAudit(c *messaging.Consumer) {
	c.RegisterHandler(messaging.TypeSimilarityScanCompleted, h.HandleScanCompleted)
}

// HandleChapterUpdated 重新索引章节；章节已不存在时清理其向量与分块
func (h *Handler) HandleChapterUpdated(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ChapterUpdatedMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("invalid chapter updated payload: %w", err)
	}
	if payload.ChapterID == "" {
		logger.Warn(ctx, "chapter updated message without chapter_id", "message_id", msg.ID)
		return nil
	}
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, payload.ChapterID)

	result, err := h.indexer.IndexChapter(ctx, payload.ChapterID)
	if errors.Is(err, similarity.ErrChapterNotFound) {
		return h.indexer.RemoveChapter(ctx, payload.ChapterID)
	}
	if err != nil {
		return err
	}

	logger.Info(ctx, "chapter reindexed",
		"status", result.Status,
		"chapter_version", payload.ChapterVersion,
	)
	return nil
}

// HandleChapterDeleted 删除章节向量与分块
func (h *Handler) HandleChapterDeleted(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ChapterUpdatedMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("invalid chapter deleted payload: %w", err)
	}
	if payload.ChapterID == "" {
		return nil
	}
	ctx = logger.WithContext(ctx, logger.ChapterIDKey, payload.ChapterID)
	return h.indexer.RemoveChapter(ctx, payload.ChapterID)
}

// HandleScanCompleted 持久化扫描审计记录，重复投递按 scan_id 去重
func (h *Handler) HandleScanCompleted(ctx context.Context, msg *messaging.Message) error {
	var payload messaging.ScanCompletedMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("invalid scan completed payload: %w", err)
	}
	if payload.ScanID == "" {
		logger.Warn(ctx, "scan completed message without scan_id", "message_id", msg.ID)
		return nil
	}

	return h.records.Create(ctx, &entity.ScanRecord{
		ID:                 payload.ScanID,
		NovelID:            payload.NovelID,
		InputContentLength: payload.InputContentLength,
		MatchCount:         payload.MatchCount,
		ClearCount:         payload.ClearCount,
		RelatedCount:       payload.RelatedCount,
		MatchedChapterIDs:  pq.StringArray(payload.MatchedChapterIDs),
		MatchedNovelIDs:    pq.StringArray(payload.MatchedNovelIDs),
		ScannedAt:          payload.ScannedAt,
	})
}
