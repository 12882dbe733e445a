// Package api exposes the ingestion boundary: it validates incoming
// messages, assigns tracking identifiers and pushes them onto the queue.
// Validation failures never reach the accumulator.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/huynhanx03/batch-ingestor/pkg/notifier"
	"github.com/huynhanx03/batch-ingestor/pkg/queue"
	"github.com/huynhanx03/batch-ingestor/pkg/settings"
	"github.com/huynhanx03/batch-ingestor/pkg/sink"
	"github.com/huynhanx03/batch-ingestor/pkg/timer"
)

// Server wires the gin engine to the queue, the store and the
// notification cache.
type Server struct {
	engine *gin.Engine
	queue  *queue.RedisQueue
	sink   *sink.PostgresSink
	bridge *notifier.Bridge
	clock  timer.Timer
	log    *zap.Logger

	batchSize int
}

// NewServer registers routes and custom validators.
func NewServer(
	cfg *settings.Config,
	q *queue.RedisQueue,
	s *sink.PostgresSink,
	bridge *notifier.Bridge,
	clock timer.Timer,
	log *zap.Logger,
) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	registerValidators()

	// Batch math in the handlers divides by the threshold.
	batchSize := cfg.Worker.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	srv := &Server{
		engine:    gin.New(),
		queue:     q,
		sink:      s,
		bridge:    bridge,
		clock:     clock,
		log:       log,
		batchSize: batchSize,
	}

	srv.engine.Use(gin.Recovery())

	srv.engine.GET("/", srv.root)
	srv.engine.GET("/health", srv.health)
	srv.engine.GET("/stats", srv.stats)
	srv.engine.GET("/queue/status", srv.queueStatus)
	srv.engine.GET("/messages", srv.listMessages)
	srv.engine.POST("/messages", srv.createMessage)
	srv.engine.POST("/simulate", srv.simulate)
	srv.engine.DELETE("/reset", srv.reset)

	return srv
}

// Engine exposes the router for the HTTP server and for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// notblank rejects content that is empty after trimming.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}
