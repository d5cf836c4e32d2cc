package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// userLimiter хранит лимитер на каждого пользователя
type userLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newUserLimiter(perMinute int) *userLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &userLimiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *userLimiter) get(userID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	return limiter
}

// RateLimit ограничивает частоту запросов пользователя. Ставится после JWTAuth.
func RateLimit(perMinute int, logger *zap.Logger) gin.HandlerFunc {
	limiter := newUserLimiter(perMinute)
	return func(c *gin.Context) {
		userID := currentUserID(c)
		if !limiter.get(userID).Allow() {
			logger.Warn("Rate limit exceeded", zap.Int64("user_id", userID), zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(int(time.Minute/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
