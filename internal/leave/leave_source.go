package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	leaveerrors "leave-review/internal/leave/errors"
	"leave-review/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	SourceCacheKey = "leave:source:requests"

	maxSourceBody = 8 << 20

	// bounds a fetch shared by concurrent callers, none of which owns it
	sharedFetchTimeout = 30 * time.Second
)

// Source returns every leave request known to the remote collection.
//
//go:generate mockgen -source=leave_source.go -destination=mock/leave_source_mock.go -package=mock
type Source interface {
	FetchAll(ctx context.Context) ([]LeaveRequest, error)
}

type httpSource struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPSource issues a single GET against url per fetch.
func NewHTTPSource(url string, timeout time.Duration, logger ...*zap.Logger) Source {
	l := zap.L().Named("leave.source")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.source")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: l,
	}
}

func (s *httpSource) FetchAll(ctx context.Context) ([]LeaveRequest, error) {
	start := time.Now()
	records, err := s.fetch(ctx)
	if err != nil {
		sourceFetches.WithLabelValues("remote", "error").Inc()
		s.logger.Warn("fetch leave requests failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("url", s.url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, leaveerrors.ErrFetchFailed.WithCause(err)
	}

	sourceFetches.WithLabelValues("remote", "ok").Inc()
	s.logger.Debug("fetch leave requests success",
		zap.Int("count", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (s *httpSource) fetch(ctx context.Context) ([]LeaveRequest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBody))
	if err != nil {
		return nil, fmt.Errorf("http read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status=%d", resp.StatusCode)
	}

	var records []LeaveRequest
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("json unmarshal response: %w", err)
	}
	if records == nil {
		records = []LeaveRequest{}
	}
	return records, nil
}

type cachedSource struct {
	next   Source
	rdb    *redis.Client
	ttl    time.Duration
	sf     *singleflight.Group
	logger *zap.Logger
}

// NewCachedSource fronts next with a short-lived Redis copy of the
// collection. Concurrent misses share one upstream call. Without a client
// or with a non-positive ttl, next is returned unchanged.
func NewCachedSource(next Source, rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) Source {
	if rdb == nil || ttl <= 0 {
		return next
	}
	l := zap.L().Named("leave.source.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.source.cache")
	}
	return &cachedSource{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (c *cachedSource) FetchAll(ctx context.Context) ([]LeaveRequest, error) {
	cached, err := c.rdb.Get(ctx, SourceCacheKey).Bytes()
	switch {
	case err == nil:
		var records []LeaveRequest
		if json.Unmarshal(cached, &records) == nil {
			sourceFetches.WithLabelValues("cache", "ok").Inc()
			return records, nil
		}
		c.logger.Warn("cached leave requests unreadable, refetching")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("read leave requests cache failed", zap.Error(err))
	}

	v, err, shared := c.sf.Do(SourceCacheKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		records, err := c.next.FetchAll(fetchCtx)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(records); err == nil {
			if err := c.rdb.Set(fetchCtx, SourceCacheKey, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("write leave requests cache failed", zap.Error(err))
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("leave requests fetch shared with concurrent caller")
	}

	return slices.Clone(v.([]LeaveRequest)), nil
}
