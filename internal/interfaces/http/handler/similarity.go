// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/infrastructure/messaging"
	"z-novel-similarity/internal/interfaces/http/dto"
	"z-novel-similarity/pkg/errors"
	"z-novel-similarity/pkg/logger"
)

// Scanner 相似度扫描
type Scanner interface {
	Scan(ctx context.Context, req similarity.ScanRequest) (*similarity.ScanResult, error)
}

// ChapterIndexer 章节向量索引
type ChapterIndexer interface {
	IndexChapter(ctx context.Context, chapterID string) (*similarity.IndexResult, error)
}

// ScanHistory 扫描审计记录查询
type ScanHistory interface {
	ListByNovel(ctx context.Context, novelID string, limit int) ([]*entity.ScanRecord, error)
	ListMatchingChapter(ctx context.Context, chapterID string, limit int) ([]*entity.ScanRecord, error)
}

// IndexQueue 章节变更投递，由 worker 异步建立索引
type IndexQueue interface {
	PublishChapterUpdated(ctx context.Context, update *messaging.ChapterUpdatedMessage) (string, error)
}

// IndexStatusQueued 索引请求已入队
const IndexStatusQueued = "queued"

// SimilarityHandler 相似度检测处理器
type SimilarityHandler struct {
	scanner     Scanner
	indexer     ChapterIndexer
	history     ScanHistory
	queue       IndexQueue
	scanTimeout time.Duration
}

// NewSimilarityHandler 创建相似度检测处理器，scanTimeout 为 0 时不额外限制
func NewSimilarityHandler(scanner Scanner, indexer ChapterIndexer, history ScanHistory, scanTimeout time.Duration) *SimilarityHandler {
	return &SimilarityHandler{
		scanner:     scanner,
		indexer:     indexer,
		history:     history,
		scanTimeout: scanTimeout,
	}
}

// WithIndexQueue 启用异步索引
func (h *SimilarityHandler) WithIndexQueue(q IndexQueue) *SimilarityHandler {
	h.queue = q
	return h
}

// Scan 相似度扫描
// @Summary 相似度扫描
// @Description 将提交的正文与全库已索引章节比对，返回命中章节及证据
// @Tags Similarity
// @Accept json
// @Produce json
// @Param body body dto.ScanRequest true "扫描请求"
// @Success 200 {object} dto.Response[dto.ScanResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/similarity/scan [post]
func (h *SimilarityHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := logger.WithContext(c.Request.Context(), logger.NovelIDKey, req.NovelID)
	if h.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.scanTimeout)
		defer cancel()
	}
	c.Request = c.Request.WithContext(ctx)

	result, err := h.scanner.Scan(ctx, similarity.ScanRequest{
		Content: req.Content,
		NovelID: req.NovelID,
	})
	if err != nil {
		respondError(c, "similarity scan failed", err, errors.ErrScanFailed)
		return
	}

	dto.Success(c, dto.ToScanResponse(result))
}

// Index 索引章节
// @Summary 索引章节
// @Description 为章节生成整体向量并清除其分块缓存，async 为 true 时投递到章节变更流由 worker 处理
// @Tags Similarity
// @Accept json
// @Produce json
// @Param body body dto.IndexRequest true "索引请求"
// @Success 200 {object} dto.Response[dto.IndexResponse]
// @Success 202 {object} dto.Response[dto.IndexResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/similarity/index [post]
func (h *SimilarityHandler) Index(c *gin.Context) {
	var req dto.IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := logger.WithContext(c.Request.Context(), logger.ChapterIDKey, req.ChapterID)
	c.Request = c.Request.WithContext(ctx)

	if req.Async {
		if h.queue == nil {
			dto.BadRequest(c, "async indexing is not enabled")
			return
		}
		update := &messaging.ChapterUpdatedMessage{ChapterID: req.ChapterID, NovelID: req.NovelID}
		if _, err := h.queue.PublishChapterUpdated(ctx, update); err != nil {
			respondError(c, "enqueue chapter index failed", err, errors.ErrServiceUnavailable)
			return
		}
		dto.Accepted(c, &dto.IndexResponse{ChapterID: req.ChapterID, Status: IndexStatusQueued})
		return
	}

	result, err := h.indexer.IndexChapter(ctx, req.ChapterID)
	if err != nil {
		respondError(c, "chapter indexing failed", err, errors.ErrIndexFailed)
		return
	}

	dto.Success(c, dto.ToIndexResponse(result))
}

// ListNovelScans 获取小说的扫描记录
// @Summary 获取小说的扫描记录
// @Tags Similarity
// @Produce json
// @Param nid path string true "小说 ID"
// @Param limit query int false "条数" default(20)
// @Success 200 {object} dto.Response[dto.ScanRecordListResponse]
// @Router /v1/novels/{nid}/scans [get]
func (h *SimilarityHandler) ListNovelScans(c *gin.Context) {
	records, err := h.history.ListByNovel(c.Request.Context(), dto.BindNovelID(c), dto.BindLimit(c))
	if err != nil {
		respondError(c, "failed to list novel scans", err, errors.ErrInternalError)
		return
	}
	dto.Success(c, dto.ToScanRecordListResponse(records))
}

// ListChapterScans 获取命中某章节的扫描记录
// @Summary 获取命中章节的扫描记录
// @Tags Similarity
// @Produce json
// @Param cid path string true "章节 ID"
// @Param limit query int false "条数" default(20)
// @Success 200 {object} dto.Response[dto.ScanRecordListResponse]
// @Router /v1/chapters/{cid}/scans [get]
func (h *SimilarityHandler) ListChapterScans(c *gin.Context) {
	records, err := h.history.ListMatchingChapter(c.Request.Context(), dto.BindChapterID(c), dto.BindLimit(c))
	if err != nil {
		respondError(c, "failed to list chapter scans", err, errors.ErrInternalError)
		return
	}
	dto.Success(c, dto.ToScanRecordListResponse(records))
}
