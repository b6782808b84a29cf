package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "PROCESSOR"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_request_body_kb", 64)

	v.SetDefault("logging.level", "info")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.input_bucket", "")
	v.SetDefault("storage.output_bucket", "")

	v.SetDefault("links.upload_ttl", 5*time.Minute)
	v.SetDefault("links.download_ttl", time.Hour)
	v.SetDefault("links.legacy_image_names", false)

	v.SetDefault("pipeline.default_width", 800)
	v.SetDefault("pipeline.jpeg_quality", 85)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.max_width", 10000)
	v.SetDefault("pipeline.max_pixels", 50_000_000)

	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database_id", 0)
	v.SetDefault("redis.health_check_interval", 30*time.Second)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.stream", "uploads:events")
	v.SetDefault("queue.group", "processor")
	v.SetDefault("queue.consumer", "processor-1")
	v.SetDefault("queue.batch_size", 10)
	v.SetDefault("queue.max_len", 10000)
	v.SetDefault("queue.block_timeout", 5*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
}

// Load reads config.{json,yaml} from the usual locations when present and
// applies PROCESSOR_* environment overrides, e.g. PROCESSOR_STORAGE_INPUT_BUCKET.
// A missing file is not an error; Lambda deployments configure through env only.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/processor")

	return load(v)
}

// LoadFile reads one explicit config file plus environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}
