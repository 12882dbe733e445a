package settings

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	defaultBatchSize        = 50
	defaultBatchTimeout     = 30 // seconds
	defaultThroughputWindow = 10 // seconds
	defaultLatencySamples   = 100
	defaultPollTimeout      = 1 // seconds
)

// Load reads configuration from the given file (yaml) with environment
// overrides (prefix INGESTOR, dots replaced by underscores). A missing
// file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("INGESTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !notFound && !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "settings: read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "settings: unmarshal config")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "ingestor")
	v.SetDefault("database.database", "messages_db")
	v.SetDefault("database.connect_timeout", 5)

	v.SetDefault("logger.log_level", "info")

	v.SetDefault("worker.batch_size", defaultBatchSize)
	v.SetDefault("worker.batch_timeout", defaultBatchTimeout)
	v.SetDefault("worker.throughput_window", defaultThroughputWindow)
	v.SetDefault("worker.latency_samples", defaultLatencySamples)
	v.SetDefault("worker.poll_timeout", defaultPollTimeout)

	v.SetDefault("batch_id.worker_id", 0)
	v.SetDefault("batch_id.epoch", 1704067200000) // 2024-01-01T00:00:00Z
}
