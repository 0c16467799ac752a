package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Scheduler *schedulerConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"file"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"render_scheduler.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"RENDER_SCHEDULER_ADDRESS" default:":8080"`
	MetricsAddress string `envconfig:"RENDER_SCHEDULER_METRICS_ADDRESS" default:":8081"`
	LogLevel       string `envconfig:"RENDER_SCHEDULER_LOG_LEVEL" default:"info"`
}

type schedulerConfig struct {
	MaxConcurrentJobs int           `envconfig:"RENDER_SCHEDULER_MAX_CONCURRENT_JOBS" default:"4"`
	MaxQueueSize      int           `envconfig:"RENDER_SCHEDULER_MAX_QUEUE_SIZE" default:"100"`
	JobTimeout        time.Duration `envconfig:"RENDER_SCHEDULER_JOB_TIMEOUT" default:"10m"`
	MaxRetries        int           `envconfig:"RENDER_SCHEDULER_MAX_RETRIES" default:"3"`
	RetryDelay        time.Duration `envconfig:"RENDER_SCHEDULER_RETRY_DELAY" default:"5s"`
	RetryBackoff      string        `envconfig:"RENDER_SCHEDULER_RETRY_BACKOFF" default:"constant"`
	BlockOnFullQueue  bool          `envconfig:"RENDER_SCHEDULER_BLOCK_ON_FULL_QUEUE" default:"false"`
	SnapshotPath      string        `envconfig:"RENDER_SCHEDULER_SNAPSHOT_PATH" default:"render_scheduler_state.json"`
	SnapshotInterval  time.Duration `envconfig:"RENDER_SCHEDULER_SNAPSHOT_INTERVAL" default:"30s"`
	RetentionAge      time.Duration `envconfig:"RENDER_SCHEDULER_RETENTION_AGE" default:"24h"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
