package settings

type Config struct {
	Server   Server   `mapstructure:"server"`
	Redis    Redis    `mapstructure:"redis"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Worker   Worker   `mapstructure:"worker"`
	BatchID  BatchID  `mapstructure:"batch_id"`
}

// Server is the configuration for the ingestion HTTP server
type Server struct {
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Redis is the configuration for the queue, counters and pub/sub transport
type Redis struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Password        string `mapstructure:"password"`
	Database        int    `mapstructure:"database"`
	PoolSize        int    `mapstructure:"pool_size"`
	MinIdleConns    int    `mapstructure:"min_idle_conns"`
	PoolTimeout     int    `mapstructure:"pool_timeout"`
	DialTimeout     int    `mapstructure:"dial_timeout"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	MaxRetries      int    `mapstructure:"max_retries"`
	MaxRetryBackoff int    `mapstructure:"max_retry_backoff"` // Milliseconds
	MinRetryBackoff int    `mapstructure:"min_retry_backoff"` // Milliseconds
}

// Database is the configuration for the PostgreSQL store
type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Seconds
	ConnectTimeout  int    `mapstructure:"connect_timeout"`   // Seconds
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxSize     int    `mapstructure:"max_size"`
	Compress    bool   `mapstructure:"compress"`
}

// Worker is the configuration for the batch accumulator.
// All knobs are read once at startup.
type Worker struct {
	BatchSize        int `mapstructure:"batch_size"`        // Records per batch
	BatchTimeout     int `mapstructure:"batch_timeout"`     // Seconds since first record of a batch
	ThroughputWindow int `mapstructure:"throughput_window"` // Seconds
	LatencySamples   int `mapstructure:"latency_samples"`   // Latency ring capacity
	PollTimeout      int `mapstructure:"poll_timeout"`      // Seconds bounded wait on the queue
}

// BatchID is the configuration for the batch identifier generator
type BatchID struct {
	WorkerID int64 `mapstructure:"worker_id"`
	Epoch    int64 `mapstructure:"epoch"` // Milliseconds since Unix epoch
}
