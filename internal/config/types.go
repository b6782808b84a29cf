package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Links    LinksConfig    `mapstructure:"links"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"gt=0"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Upper bound for request bodies on the API, in KB.
	MaxRequestBodyKB int64 `mapstructure:"max_request_body_kb" validate:"gt=0"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig points at the input and output buckets. Endpoint and static
// credentials are only needed for S3-compatible stores (R2, MinIO); on AWS the
// default credential chain is used.
type StorageConfig struct {
	Region       string `mapstructure:"region" validate:"required"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	AccessKeyID  string `mapstructure:"access_key_id"`
	SecretKey    string `mapstructure:"secret_key"`
	InputBucket  string `mapstructure:"input_bucket" validate:"required"`
	OutputBucket string `mapstructure:"output_bucket" validate:"required"`
}

type LinksConfig struct {
	UploadTTL   time.Duration `mapstructure:"upload_ttl" validate:"gt=0"`
	DownloadTTL time.Duration `mapstructure:"download_ttl" validate:"gt=0"`
	// Predict image download keys unchanged instead of stem + ".jpg".
	LegacyImageNames bool `mapstructure:"legacy_image_names"`
}

type PipelineConfig struct {
	DefaultWidth int `mapstructure:"default_width" validate:"gt=0"`
	JPEGQuality  int `mapstructure:"jpeg_quality" validate:"gte=1,lte=100"`
	Concurrency  int `mapstructure:"concurrency" validate:"gte=1"` // records processed in parallel per batch
	// Images asking for a wider output, or holding more pixels before or
	// after resizing, fail instead of being processed.
	MaxWidth  int `mapstructure:"max_width" validate:"gte=1"`
	MaxPixels int `mapstructure:"max_pixels" validate:"gte=1"`
}

type RedisConfig struct {
	Password            string        `mapstructure:"password"`
	DatabaseID          int           `mapstructure:"database_id"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	PoolSize            int           `mapstructure:"pool_size"`
	Nodes               []RedisNode   `mapstructure:"nodes"`
}

type RedisNode struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

type QueueConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Stream       string        `mapstructure:"stream"`        // redis stream name
	Group        string        `mapstructure:"group"`         // consumer group name
	Consumer     string        `mapstructure:"consumer"`      // consumer name inside the group
	BatchSize    int64         `mapstructure:"batch_size"`    // entries per XREADGROUP
	MaxLen       int64         `mapstructure:"max_len"`       // stream max length before trim
	BlockTimeout time.Duration `mapstructure:"block_timeout"` // XREADGROUP block timeout
}

type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}
