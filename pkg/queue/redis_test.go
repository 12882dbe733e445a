package queue

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/huynhanx03/batch-ingestor/pkg/settings"
)

const (
	redisImage = "redis:7-alpine"
	redisPort  = "6379/tcp"
)

func TestRedisQueue_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	if !isDockerRunning(ctx) {
		t.Skip("Docker is not running, skipping integration test")
	}

	host, port, terminate, err := setupRedisBox(ctx)
	if err != nil {
		t.Fatalf("failed to setup redis container: %v", err)
	}
	defer terminate()

	q, err := NewRedisQueue(&settings.Redis{Host: host, Port: port})
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	defer q.Close()

	t.Run("PushPopFIFO", func(t *testing.T) {
		testPushPopFIFO(t, ctx, q)
	})

	t.Run("PopEmpty", func(t *testing.T) {
		testPopEmpty(t, ctx, q)
	})

	t.Run("Len", func(t *testing.T) {
		testLen(t, ctx, q)
	})

	t.Run("TrackQueued", func(t *testing.T) {
		testTrackQueued(t, ctx, q)
	})
}

func testPushPopFIFO(t *testing.T, ctx context.Context, q *RedisQueue) {
	for i := 0; i < 3; i++ {
		if err := q.Push(ctx, []byte(fmt.Sprintf("p%d", i))); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		payload, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if want := fmt.Sprintf("p%d", i); string(payload) != want {
			t.Errorf("Pop() = %q, want %q", payload, want)
		}
	}
}

func testPopEmpty(t *testing.T, ctx context.Context, q *RedisQueue) {
	start := time.Now()
	_, err := q.Pop(ctx, time.Second)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Pop() error = %v, want ErrEmpty", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("Pop() returned after %v, want a blocking wait", elapsed)
	}
}

func testLen(t *testing.T, ctx context.Context, q *RedisQueue) {
	for i := 0; i < 4; i++ {
		if err := q.Push(ctx, []byte("x")); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Len() = %d, want 4", n)
	}

	for i := 0; i < 4; i++ {
		if _, err := q.Pop(ctx, time.Second); err != nil {
			t.Fatalf("drain Pop() error = %v", err)
		}
	}
}

func testTrackQueued(t *testing.T, ctx context.Context, q *RedisQueue) {
	if err := q.TrackQueued(ctx, "aaa", "bbb", "ccc"); err != nil {
		t.Fatalf("TrackQueued() error = %v", err)
	}

	ids, err := q.QueuedIDs(ctx, 10)
	if err != nil {
		t.Fatalf("QueuedIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("QueuedIDs() = %d ids, want 3", len(ids))
	}
	// Newest first.
	if ids[0] != "ccc" || ids[2] != "aaa" {
		t.Errorf("QueuedIDs() = %v, want newest first", ids)
	}
}

func setupRedisBox(ctx context.Context) (string, int, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{redisPort},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return "", 0, nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, redisPort)
	if err != nil {
		container.Terminate(ctx)
		return "", 0, nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	terminate := func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("failed to terminate container: %v\n", err)
		}
	}

	return host, mappedPort.Int(), terminate, nil
}

func isDockerRunning(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}
