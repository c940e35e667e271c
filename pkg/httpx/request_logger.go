package httpx

import (
	"time"

	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
)

// RequestLogger — middleware для логирования HTTP-запросов; 5xx пишутся уровнем warn.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// не логируем служебные ручки
		switch c.FullPath() {
		case "/metrics", "/ping", "/healthz":
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rid, _ := ctxmeta.RequestIDFromContext(c.Request.Context())
		tr, _ := ctxmeta.TraceFromContext(c.Request.Context())

		logf := log.Infof
		if c.Writer.Status() >= 500 {
			logf = log.Warnf
		}
		logf(
			c.Request.Context(),
			"request id=%s trace=%s span=%s method=%s path=%s status=%d ip=%s duration=%s size=%d",
			rid, tr.TraceID, tr.SpanID,
			c.Request.Method,
			path,
			c.Writer.Status(),
			c.ClientIP(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
