package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"leave-review/internal/shared/apperror"
	"leave-review/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	idempotencyLockTTL = 30 * time.Second
)

// Idempotency replays the stored response body of a POST already served for
// the same session, route and Idempotency-Key. A duplicate that arrives while
// the first is still running gets 409. The handler owns releasing the lock
// and storing the response under the keys set on the context.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("middleware.idempotency")
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if rdb == nil || idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		sessionID := c.GetString("session_id")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s:%s", c.FullPath(), c.Param("id"), sessionID, idempKey)
		lockKey := cacheKey + ":lock"
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			if json.Valid(val) {
				c.Header("Idempotent-Replayed", "true")
				c.Data(http.StatusOK, "application/json; charset=utf-8", val)
				c.Abort()
				return
			}
			log.Warn("cached idempotent response unreadable", zap.String("key", cacheKey))
		case !errors.Is(err, redis.Nil):
			// without redis the request is served without protection
			log.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock failed", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Abort(c, http.StatusConflict, apperror.CodeConflict, "A request with this Idempotency-Key is still being processed")
			return
		}

		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}
