// The worker is the single consumer of the inbound queue: it accumulates
// records into bounded batches, commits them to Postgres and publishes
// metrics and completion events over Redis.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/batch-ingestor/pkg/accumulator"
	"github.com/huynhanx03/batch-ingestor/pkg/logger"
	"github.com/huynhanx03/batch-ingestor/pkg/metrics"
	"github.com/huynhanx03/batch-ingestor/pkg/notifier"
	"github.com/huynhanx03/batch-ingestor/pkg/queue"
	"github.com/huynhanx03/batch-ingestor/pkg/settings"
	"github.com/huynhanx03/batch-ingestor/pkg/sink"
	"github.com/huynhanx03/batch-ingestor/pkg/timer"
	"github.com/huynhanx03/batch-ingestor/pkg/unique"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := settings.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q, err := queue.NewRedisQueue(&cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer q.Close()

	pg, err := sink.NewPostgresSink(ctx, &cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		zlog.Fatal("failed to ensure schema", zap.Error(err))
	}

	idClock := timer.NewCachedTimer(time.Millisecond)
	defer idClock.Stop()
	ids, err := unique.NewNode(cfg.BatchID, idClock)
	if err != nil {
		zlog.Fatal("failed to create id generator", zap.Error(err))
	}

	store := metrics.NewRedisStore(q.Client())
	if err := store.Init(ctx); err != nil {
		zlog.Warn("failed to seed counters", zap.Error(err))
	}

	clock := timer.NewSystemTimer()
	engine := metrics.NewEngine(&cfg.Worker, clock)
	bridge := notifier.NewBridge(ids, notifier.NewRedisPublisher(q.Client()))

	acc := accumulator.New(&cfg.Worker, q, pg, engine, store, bridge, clock, zlog)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acc.Run(gctx)
	})
	g.Go(func() error {
		return reportQueueDepth(gctx, q, zlog)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		zlog.Error("worker stopped", zap.Error(err))
	}

	msgs, batches := engine.Totals()
	zlog.Info("worker shut down",
		zap.Int64("total_messages", msgs),
		zap.Int64("total_batches", batches),
		zap.Int64("dropped", acc.Dropped()),
	)
}

// reportQueueDepth logs the inbound queue depth periodically so operators
// can spot a stalled consumer without a dashboard.
func reportQueueDepth(ctx context.Context, q *queue.RedisQueue, zlog *zap.Logger) error {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			depth, err := q.Len(ctx)
			if err != nil {
				zlog.Warn("failed to read queue depth", zap.Error(err))
				continue
			}
			zlog.Info("queue depth", zap.Int64("pending", depth))
		}
	}
}
