package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink backends
const (
	SinkBackendDynamoDB = "dynamodb"
	SinkBackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Sink     SinkConfig
	Redis    RedisConfig
	Workflow WorkflowConfig
	HTTP     HTTPConfig
	Log      LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// StorageConfig holds object storage connection settings. Endpoint is empty
// for real AWS S3 and set for S3-compatible backends (MinIO etc.)
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

// SinkConfig selects the key-value sink and names its two KPI tables
type SinkConfig struct {
	Backend       string // dynamodb, redis
	CategoryTable string
	OrderTable    string
}

// RedisConfig holds Redis connection settings (used when sink.backend=redis)
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// WorkflowConfig holds the downstream orchestration target
type WorkflowConfig struct {
	StateMachineARN string
}

// HTTPConfig holds trigger HTTP server configuration
type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ETL_ prefix (e.g., ETL_STORAGE_BUCKET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		Sink: SinkConfig{
			Backend:       v.GetString("sink.backend"),
			CategoryTable: v.GetString("sink.category_table"),
			OrderTable:    v.GetString("sink.order_table"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Workflow: WorkflowConfig{
			StateMachineARN: v.GetString("workflow.state_machine_arn"),
		},
		HTTP: HTTPConfig{
			Port:         v.GetString("http.port"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ecommerce-etl"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-west-1"
	}
	if cfg.Sink.Backend == "" {
		cfg.Sink.Backend = SinkBackendDynamoDB
	}
	if cfg.Sink.CategoryTable == "" {
		cfg.Sink.CategoryTable = "CategoryKPI"
	}
	if cfg.Sink.OrderTable == "" {
		cfg.Sink.OrderTable = "OrderKPI"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Sink.Backend {
	case SinkBackendDynamoDB, SinkBackendRedis:
	default:
		return fmt.Errorf("sink.backend must be %q or %q, got %q",
			SinkBackendDynamoDB, SinkBackendRedis, c.Sink.Backend)
	}

	if c.App.Env == "production" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required in production")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage credentials are required in production")
		}
	}

	return nil
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
