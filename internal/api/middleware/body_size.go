package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopping-list-generator/internal/pkg/common"
)

// ErrCodePayloadTooLarge 請求體過大
const ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

// BodySizeLimit 限制請求體大小的中間件，maxSize <= 0 時不限制
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		// 檢查 Content-Length
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Code:    ErrCodePayloadTooLarge,
				Message: "請求內容過大",
			})
			return
		}

		// 未宣告長度的請求由 MaxBytesReader 在讀取時截斷
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
