// Package middleware 提供 HTTP 服务使用的 gin 中间件.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/photovault/pkg/configs"
)

// Default 按固定顺序返回服务使用的中间件链.
// Recovery 最外层，日志与追踪在限流、熔断之前，确保被拒绝的请求同样可见.
func Default(cfg *configs.AppConfig) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		gin.Recovery(),
		TracingMiddleware(),
		GinLoggerMiddleware(),
		PrometheusMiddleware(),
		CORSMiddleware(cfg.Server),
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
		BodyLimitMiddleware(cfg.Server.MaxUploadBytes()),
		gzip.Gzip(gzip.DefaultCompression),
	}
}

// BodyLimitMiddleware 限制请求体大小，超出时读取请求体会返回错误.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
