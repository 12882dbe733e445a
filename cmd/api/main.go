// The api binary serves the ingestion endpoint: validate, assign a
// tracking identifier, push onto the queue. All batching happens in the
// worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/batch-ingestor/pkg/api"
	"github.com/huynhanx03/batch-ingestor/pkg/logger"
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

	idClock := timer.NewCachedTimer(time.Millisecond)
	defer idClock.Stop()
	ids, err := unique.NewNode(cfg.BatchID, idClock)
	if err != nil {
		zlog.Fatal("failed to create id generator", zap.Error(err))
	}
	bridge := notifier.NewBridge(ids, notifier.NewRedisPublisher(q.Client()))

	srv := api.NewServer(cfg, q, pg, bridge, timer.NewSystemTimer(), zlog)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Engine(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("api listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		zlog.Error("api stopped", zap.Error(err))
	}
}
