package handler

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/interfaces/http/dto"
	"z-novel-similarity/pkg/errors"
	"z-novel-similarity/pkg/logger"
)

// toAppError 将应用层错误映射为带 HTTP 状态的 AppError
func toAppError(err error, fallback *errors.AppError) *errors.AppError {
	switch {
	case errors.IsAppError(err):
		return errors.AsAppError(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrRequestCanceled.WithError(err)
	case stderrors.Is(err, similarity.ErrProviderFailure), stderrors.Is(err, similarity.ErrEmbeddingMismatch):
		return errors.ErrEmbeddingFailed.WithError(err)
	case stderrors.Is(err, similarity.ErrCandidateSnapshot):
		return errors.ErrServiceUnavailable.WithDetail("chapter embeddings unavailable").WithError(err)
	case stderrors.Is(err, similarity.ErrChapterNotFound):
		return errors.ErrChapterNotFound.WithError(err)
	default:
		return fallback.WithError(err)
	}
}

// respondError 记录日志并输出错误响应
func respondError(c *gin.Context, msg string, err error, fallback *errors.AppError) {
	appErr := toAppError(err, fallback)
	ctx := c.Request.Context()
	if appErr.HTTPStatus >= 500 {
		logger.Error(ctx, msg, err, "error_code", string(appErr.Code))
	} else {
		logger.Warn(ctx, msg, "error", err.Error(), "error_code", string(appErr.Code))
	}
	dto.AppError(c, appErr)
}
