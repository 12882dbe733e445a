package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Worker.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.Worker.BatchSize)
	}
	if cfg.Worker.BatchTimeout != 30 {
		t.Errorf("BatchTimeout = %d, want 30", cfg.Worker.BatchTimeout)
	}
	if cfg.Worker.ThroughputWindow != 10 {
		t.Errorf("ThroughputWindow = %d, want 10", cfg.Worker.ThroughputWindow)
	}
	if cfg.Worker.LatencySamples != 100 {
		t.Errorf("LatencySamples = %d, want 100", cfg.Worker.LatencySamples)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
worker:
  batch_size: 5
  batch_timeout: 2
redis:
  host: redis.internal
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Worker.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.Worker.BatchSize)
	}
	if cfg.Worker.BatchTimeout != 2 {
		t.Errorf("BatchTimeout = %d, want 2", cfg.Worker.BatchTimeout)
	}
	if cfg.Redis.Host != "redis.internal" {
		t.Errorf("Redis.Host = %q, want redis.internal", cfg.Redis.Host)
	}

	// Keys the file omits keep their defaults.
	if cfg.Worker.LatencySamples != 100 {
		t.Errorf("LatencySamples = %d, want default 100", cfg.Worker.LatencySamples)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Worker.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want default 50", cfg.Worker.BatchSize)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("INGESTOR_WORKER_BATCH_SIZE", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Worker.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want env override 7", cfg.Worker.BatchSize)
	}
}
