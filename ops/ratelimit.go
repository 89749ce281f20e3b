package ops

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "etl:ratelimit:"

// RateLimiter caps manual trigger requests per client IP in a fixed redis window.
type RateLimiter struct {
	Client *redis.Client
	Limit  int64
	Window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{Client: client, Limit: limit, Window: window}
}

func (rl *RateLimiter) Middleware(c *gin.Context) {
	ctx := c.Request.Context()
	key := rateLimitPrefix + c.ClientIP()

	count, err := rl.Client.Incr(ctx, key).Result()
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := rl.Client.Expire(ctx, key, rl.Window).Err(); err != nil {
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}
	if count > rl.Limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.Window.Seconds())),
		})
		return
	}
	c.Next()
}
