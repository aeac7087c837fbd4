package app

import (
	"context"
	"errors"
	"net/http"

	"leave-review/internal/bootstrap"
	"leave-review/internal/config"
	"leave-review/internal/middleware"
	"leave-review/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const connectRetries = 5

// App holds what main needs after the router is built.
type App struct {
	Tasks []bootstrap.BackgroundTask

	rdb    *redis.Client
	writer *kafkago.Writer
	logger *zap.Logger
}

// BuildApp connects the optional infrastructure, registers every route on
// router and returns the background tasks to run with the server.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	// 1. Setup Infrastructure
	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		logger.Info("redis connection established", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, source cache and idempotency disabled")
	}

	if cfg.KafkaBroker != "" {
		writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.writer = writer
		logger.Info("kafka connection established", zap.String("broker", cfg.KafkaBroker))
	} else {
		logger.Info("KAFKA_BROKER not set, review events are not published")
	}

	// 2. Global middleware and operational routes
	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.Metrics(),
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	)
	router.GET("/health", a.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 3. Register Modules & Routes
	a.Tasks = registerModules(router, cfg, a.rdb, a.writer, logger)

	return a, nil
}

// Close releases the connections opened by BuildApp.
func (a *App) Close() error {
	var errs []error
	if a.writer != nil {
		errs = append(errs, a.writer.Close())
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	return errors.Join(errs...)
}

func (a *App) health(c *gin.Context) {
	if err := a.ping(c.Request.Context()); err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) ping(ctx context.Context) error {
	if a.rdb == nil {
		return nil
	}
	return a.rdb.Ping(ctx).Err()
}
