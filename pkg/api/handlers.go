package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huynhanx03/batch-ingestor/pkg/apperr"
	"github.com/huynhanx03/batch-ingestor/pkg/metrics"
	"github.com/huynhanx03/batch-ingestor/pkg/notifier"
	"github.com/huynhanx03/batch-ingestor/pkg/queue"
	"github.com/huynhanx03/batch-ingestor/pkg/record"
)

const serviceName = "ingestor"

type createMessageRequest struct {
	UserID    int64  `json:"user_id" binding:"required,gt=0"`
	ChannelID int64  `json:"channel_id" binding:"required,gt=0"`
	Content   string `json:"content" binding:"required,notblank,max=2000"`
}

type createMessageResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	QueuedAt  string `json:"queued_at"`
}

func (s *Server) root(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, gin.H{
		"service": "high-speed message ingestor",
		"status":  "running",
		"endpoints": gin.H{
			"POST /messages":    "submit a new message to the queue",
			"POST /simulate":    "run a burst simulation",
			"GET /messages":     "last N persisted messages",
			"GET /queue/status": "queue depth and batch progress",
			"GET /stats":        "worker counters",
			"GET /health":       "health check",
		},
	})
}

func (s *Server) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.New(CodeParamInvalid, err.Error(), http.StatusBadRequest, err))
		return
	}

	rec, err := record.New(req.UserID, req.ChannelID, req.Content, s.clock.Now())
	if err != nil {
		ErrorResponse(c, apperr.New(CodeParamInvalid, err.Error(), http.StatusBadRequest, err))
		return
	}

	payload, err := rec.Encode()
	if err != nil {
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeInternalServer, apperr.MsgProcessFailed, http.StatusInternalServerError))
		return
	}

	ctx := c.Request.Context()
	if err := s.queue.Push(ctx, payload); err != nil {
		s.log.Error("failed to queue message", zap.Error(err))
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeQueueUnavailable, apperr.MsgQueueFailed, http.StatusServiceUnavailable))
		return
	}
	if err := s.queue.TrackQueued(ctx, rec.TrackingID); err != nil {
		s.log.Warn("failed to track queued id", zap.Error(err))
	}

	SuccessResponse(c, http.StatusCreated, createMessageResponse{
		MessageID: rec.TrackingID,
		Status:    "queued",
		QueuedAt:  rec.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Server) listMessages(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			ErrorResponse(c, apperr.New(CodeParamInvalid, "limit must be 1-1000", http.StatusBadRequest, nil))
			return
		}
		limit = parsed
	}

	rows, err := s.sink.Recent(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("failed to fetch persisted messages", zap.Error(err))
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeStoreUnavailable, apperr.MsgGetFailed, http.StatusServiceUnavailable))
		return
	}
	SuccessResponse(c, http.StatusOK, rows)
}

func (s *Server) queueStatus(c *gin.Context) {
	ctx := c.Request.Context()

	depth, err := s.queue.Len(ctx)
	if err != nil {
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeQueueUnavailable, apperr.MsgUnavailable, http.StatusServiceUnavailable))
		return
	}

	queuedIDs, err := s.queue.QueuedIDs(ctx, 100)
	if err != nil {
		s.log.Warn("failed to read queued ids", zap.Error(err))
	}

	status := gin.H{
		"queue_length":       depth,
		"batch_threshold":    s.batchSize,
		"batch_progress":     depth % int64(s.batchSize),
		"batches_ready":      depth / int64(s.batchSize),
		"queued_message_ids": queuedIDs,
	}

	if last, ok, err := s.bridge.Last(ctx); err == nil && ok {
		status["last_batch"] = gin.H{
			"batch_id":     last.BatchID,
			"size":         last.BatchSize,
			"completed_at": last.Timestamp.Format(time.RFC3339Nano),
		}
	}

	SuccessResponse(c, http.StatusOK, status)
}

func (s *Server) health(c *gin.Context) {
	depth, err := s.queue.Len(c.Request.Context())
	if err != nil {
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeQueueUnavailable, apperr.MsgUnavailable, http.StatusServiceUnavailable))
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"status":          "healthy",
		"redis":           "connected",
		"queue_length":    depth,
		"batch_threshold": s.batchSize,
	})
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	client := s.queue.Client()

	keys := []string{
		metrics.KeyTotalMessages, metrics.KeyTotalBatches, metrics.KeyCurrentRPS,
		metrics.KeyAvgLatencyMS, metrics.KeyP95LatencyMS, metrics.KeyP99LatencyMS,
		metrics.KeyBufferSize,
	}
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeQueueUnavailable, apperr.MsgGetFailed, http.StatusServiceUnavailable))
		return
	}

	out := gin.H{}
	for i, key := range keys {
		if values[i] == nil {
			out[key] = "0"
			continue
		}
		out[key] = values[i]
	}
	SuccessResponse(c, http.StatusOK, out)
}

func (s *Server) reset(c *gin.Context) {
	ctx := c.Request.Context()

	deleted, err := s.sink.Truncate(ctx)
	if err != nil {
		s.log.Error("failed to clear store", zap.Error(err))
		ErrorResponse(c, apperr.MapError(serviceName, err, CodeStoreUnavailable, apperr.MsgDeleteFailed, http.StatusServiceUnavailable))
		return
	}

	clearedQueue, err := s.queue.Len(ctx)
	if err != nil {
		clearedQueue = 0
	}

	client := s.queue.Client()
	client.Del(ctx,
		queue.ListKey, queue.QueuedIDsKey,
		metrics.PersistedIDsKey, metrics.LastPersistedIDsKey,
		metrics.KeyTotalMessages, metrics.KeyTotalBatches, metrics.KeyCurrentRPS,
		metrics.KeyAvgLatencyMS, metrics.KeyP95LatencyMS, metrics.KeyP99LatencyMS,
		metrics.KeyBufferSize, metrics.KeyBatchStart,
		notifier.LastEventKey, notifier.LastBatchIDKey,
		notifier.LastBatchSizeKey, notifier.LastBatchTimeKey,
	)

	SuccessResponse(c, http.StatusOK, gin.H{
		"status":           "reset_complete",
		"deleted_messages": deleted,
		"cleared_queue":    clearedQueue,
	})
}
