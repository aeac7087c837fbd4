package app

import (
	"context"

	"leave-review/internal/bootstrap"
	"leave-review/internal/config"
	"leave-review/internal/leave"
	"leave-review/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	writer *kafkago.Writer,
	logger *zap.Logger,
) []bootstrap.BackgroundTask {
	// --- Sources ---
	remote := leave.NewHTTPSource(cfg.Source.URL, cfg.Source.Timeout, logger)
	var source leave.Source = remote
	if rdb != nil {
		source = leave.NewCachedSource(remote, rdb, cfg.Source.CacheTTL, logger)
	}

	// --- Publishers ---
	publisher := leave.NewNoopEventPublisher()
	if writer != nil {
		publisher = leave.NewKafkaEventPublisher(writer)
	}

	// --- Services ---
	sessions := leave.NewSessions(cfg.PageSize, cfg.Session.IdleTimeout)
	leaveService := leave.NewService(sessions, source, publisher, logger)

	// --- Handlers ---
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb, logger)

	// --- Routes Registration ---
	session := middleware.Session(cfg.IsProduction())
	decision := []gin.HandlerFunc{
		middleware.RateLimitBySession(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	}
	if rdb != nil {
		decision = append(decision, middleware.Idempotency(rdb, logger))
	}

	api := router.Group("/api")
	{
		leave.RegisterRoutes(api, leaveHandler, session, decision...)
	}

	return []bootstrap.BackgroundTask{
		func(ctx context.Context) {
			sessions.RunJanitor(ctx, cfg.Session.SweepInterval, logger)
		},
	}
}
