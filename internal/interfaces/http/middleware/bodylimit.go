package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"z-novel-similarity/internal/interfaces/http/dto"
	"z-novel-similarity/pkg/errors"
)

// BodyLimit 限制请求体大小，limit <= 0 时不限制
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.Abort()
			dto.ErrorWithDetail(c, http.StatusRequestEntityTooLarge, "request body too large", &dto.ErrorDetail{
				ErrorCode: string(errors.CodeInvalidParam),
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
