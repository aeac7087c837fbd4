package leave

import (
	"encoding/json"
	"net/http"
	"time"

	leaveerrors "leave-review/internal/leave/errors"
	"leave-review/internal/shared/apperror"
	"leave-review/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

// NewHandlerWithRedis enables replay of decision responses for requests
// carrying an Idempotency-Key.
func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logger...)
	h.rdb = rdb
	return h
}

func getSessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeView(c *gin.Context, view DashboardView, err error) {
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	meta := response.NewPaginationMeta(int64(view.Total), view.Page, view.PageSize)
	response.Success(c, http.StatusOK, view, &meta)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("http dashboard validation failed", zap.Error(err))
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, apperror.CodeValidationError, httpErr.Message, err.Error())
		return false
	}
	return true
}

// Forward proxies the remote collection. Its body is the bare
// {data,total,...} object and failures are reported as {error}.
func (h *Handler) Forward(c *gin.Context) {
	var q ForwardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Warn("http forward validation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, ForwardErrorResponse{Error: apperror.MapValidationError(err).Error()})
		return
	}

	resp, err := h.service.Forward(c.Request.Context(), q)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("http forward failed",
			zap.Int("status", httpErr.Status),
			zap.Error(err),
		)
		c.JSON(httpErr.Status, ForwardErrorResponse{Error: httpErr.Message})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), getSessionID(c))
	h.writeView(c, view, err)
}

func (h *Handler) Refresh(c *gin.Context) {
	view, err := h.service.Refresh(c.Request.Context(), getSessionID(c))
	h.writeView(c, view, err)
}

func (h *Handler) SetFilter(c *gin.Context) {
	var req SetFilterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.service.SetFilter(c.Request.Context(), getSessionID(c), req.Status)
	h.writeView(c, view, err)
}

func (h *Handler) SetSort(c *gin.Context) {
	var req SetSortRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.service.SetSort(c.Request.Context(), getSessionID(c), req.Order)
	h.writeView(c, view, err)
}

func (h *Handler) ToggleSort(c *gin.Context) {
	view, err := h.service.ToggleSort(c.Request.Context(), getSessionID(c))
	h.writeView(c, view, err)
}

func (h *Handler) SetPage(c *gin.Context) {
	var req SetPageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.service.SetPage(c.Request.Context(), getSessionID(c), req.Page)
	h.writeView(c, view, err)
}

func (h *Handler) NextPage(c *gin.Context) {
	view, err := h.service.NextPage(c.Request.Context(), getSessionID(c))
	h.writeView(c, view, err)
}

func (h *Handler) PrevPage(c *gin.Context) {
	view, err := h.service.PrevPage(c.Request.Context(), getSessionID(c))
	h.writeView(c, view, err)
}

func (h *Handler) Approve(c *gin.Context) {
	h.review(c, StatusApproved)
}

func (h *Handler) Reject(c *gin.Context) {
	h.review(c, StatusRejected)
}

func (h *Handler) review(c *gin.Context, status Status) {
	ctx := c.Request.Context()
	lockKey := c.GetString("idempotency_lock_key")
	cacheKey := c.GetString("idempotency_cache_key")

	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(ctx, lockKey)
	}

	id := c.Param("id")
	h.logger.Debug("http review leave request",
		zap.String("leave_request_id", id),
		zap.String("status", string(status)),
	)

	var (
		view DashboardView
		err  error
	)
	switch status {
	case StatusApproved:
		view, err = h.service.Approve(ctx, getSessionID(c), id)
	case StatusRejected:
		view, err = h.service.Reject(ctx, getSessionID(c), id)
	default:
		err = leaveerrors.ErrInvalidDecision
	}
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil && cacheKey != "" {
		meta := response.NewPaginationMeta(int64(view.Total), view.Page, view.PageSize)
		envelope := response.ApiEnvelope{Ok: true, Data: view, Meta: &meta}
		if payload, marshalErr := json.Marshal(envelope); marshalErr == nil {
			if setErr := h.rdb.Set(ctx, cacheKey, payload, idempotencyTTL).Err(); setErr != nil {
				h.logger.Warn("store idempotent response failed", zap.Error(setErr))
			}
		}
	}

	h.writeView(c, view, nil)
}
