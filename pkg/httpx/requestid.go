package httpx

import (
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLen = 128
)

// RequestIDMiddleware:
// - принимает X-Request-ID от клиента, если он печатный ASCII не длиннее 128 байт
// - иначе генерирует UUID
// - кладёт request_id в контекст и возвращает его в ответном заголовке
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := ctxmeta.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// validRequestID — печатный ASCII без пробелов, не длиннее maxRequestIDLen.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
