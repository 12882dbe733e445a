package api

import (
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huynhanx03/batch-ingestor/pkg/apperr"
	"github.com/huynhanx03/batch-ingestor/pkg/record"
)

const defaultSimulationCount = 500

// sampleContents keeps burst simulations looking like real chat traffic.
var sampleContents = []string{
	"Hey everyone! How's it going?",
	"Just pushed the latest changes to main",
	"Can someone review my PR when they get a chance?",
	"The new feature is looking great!",
	"Anyone up for a quick sync?",
	"Just deployed to staging, testing now",
	"Found a bug in the auth flow, fixing it",
	"Need help with the API integration",
	"The tests are passing now",
	"Updated the docs with the new endpoints",
	"Quick question about the database schema",
	"Working on the performance optimization",
	"The metrics look good today",
	"Anyone seen this error before?",
	"Fixed the memory leak issue",
	"Just merged the feature branch",
	"The pipeline is running faster now",
	"Debugging the WebSocket connection",
	"The batch processing is working well",
	"Optimized the database queries",
	"Investigating the latency spike",
	"Scaling up the worker instances",
	"The queue is draining nicely",
	"All systems operational",
}

type simulateRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=10000"`
}

// simulate injects a burst of synthetic messages so batching behavior can
// be observed end to end.
func (s *Server) simulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.New(CodeParamInvalid, err.Error(), http.StatusBadRequest, err))
		return
	}
	count := req.Count
	if count == 0 {
		count = defaultSimulationCount
	}

	ctx := c.Request.Context()
	trackingIDs := make([]string, 0, count)

	for i := 0; i < count; i++ {
		rec, err := record.New(
			rand.Int63n(10000)+1,
			rand.Int63n(100)+1,
			sampleContents[rand.Intn(len(sampleContents))],
			s.clock.Now(),
		)
		if err != nil {
			continue
		}

		payload, err := rec.Encode()
		if err != nil {
			continue
		}
		if err := s.queue.Push(ctx, payload); err != nil {
			s.log.Error("simulation push failed", zap.Error(err), zap.Int("sent", len(trackingIDs)))
			ErrorResponse(c, apperr.MapError(serviceName, err, CodeQueueUnavailable, apperr.MsgQueueFailed, http.StatusServiceUnavailable))
			return
		}
		trackingIDs = append(trackingIDs, rec.TrackingID)
	}

	if err := s.queue.TrackQueued(ctx, trackingIDs...); err != nil {
		s.log.Warn("failed to track simulated ids", zap.Error(err))
	}

	depth, _ := s.queue.Len(ctx)
	SuccessResponse(c, http.StatusAccepted, gin.H{
		"status":                    "simulation_started",
		"messages_count":            count,
		"tracking_ids":              trackingIDs,
		"current_queue":             depth,
		"expected_complete_batches": depth / int64(s.batchSize),
		"expected_remaining_queued": depth % int64(s.batchSize),
		"batch_threshold":           s.batchSize,
	})
}
