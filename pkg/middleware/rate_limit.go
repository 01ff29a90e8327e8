package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/photovault/pkg/configs"
)

// idleLimiterTTL 闲置超过该时间的 limiter 会在下次清理时移除.
const idleLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiters 按 key 维护 limiter，访问时顺带清理闲置项.
type keyedLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func (k *keyedLimiters) get(key string, now time.Time) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if now.Sub(k.lastSweep) > idleLimiterTTL {
		for name, e := range k.entries {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(k.entries, name)
			}
		}

		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.rps, k.burst)}
		k.entries[key] = e
	}

	e.lastSeen = now

	return e.limiter
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// Key 支持 global、ip 与 header:Header-Name（缺少该请求头时回退到 IP）.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := max(cfg.Burst, 1)
	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				abortRateLimited(c)
				return
			}

			c.Next()
		}
	}

	limiters := &keyedLimiters{
		rps:     rate.Limit(cfg.RPS),
		burst:   burst,
		entries: map[string]*limiterEntry{},
	}

	header := ""
	if strings.HasPrefix(keyMode, "header:") {
		// GetHeader 不区分大小写
		header = strings.TrimSpace(cfg.Key[len("header:"):])
	}

	return func(c *gin.Context) {
		key := ""
		if header != "" {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = clientIP(c)
		}

		if key == "" {
			key = "unknown"
		}

		if !limiters.get(key, time.Now()).Allow() {
			abortRateLimited(c)
			return
		}

		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		gin.H{"message": "rate limit exceeded, request too frequent, please try again later"})
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
