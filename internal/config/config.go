package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Gateway        GatewayConfig
	Webhook        WebhookConfig
	Dispatch       DispatchConfig
	Session        SessionConfig
	Database       DatabaseConfig
	Deduplication  DeduplicationConfig
	CircuitBreaker CircuitBreakerConfig
	Logging        LoggingConfig
	Tracing        TracingConfig
}

// ServerConfig is the admin listener serving /health and /metrics. Port 0
// disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type GatewayConfig struct {
	Port         int             `mapstructure:"port"`
	AuthToken    string          `mapstructure:"auth_token"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type WebhookConfig struct {
	Enabled       bool              `mapstructure:"enabled"`
	Endpoint      string            `mapstructure:"endpoint"`
	Headers       map[string]string `mapstructure:"headers"`
	APIKey        string            `mapstructure:"api_key"`
	TimeoutMs     int               `mapstructure:"timeout_ms"`
	RetryAttempts int               `mapstructure:"retry_attempts"`
	RetryDelayMs  int               `mapstructure:"retry_delay_ms"`
	Filters       FiltersConfig     `mapstructure:"filters"`
	LogSuccess    bool              `mapstructure:"log_success"`
	LogErrors     bool              `mapstructure:"log_errors"`
	Debug         bool              `mapstructure:"debug"`
}

func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c WebhookConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

type FiltersConfig struct {
	SkipOwnMessages   bool     `mapstructure:"skip_own_messages"`
	SkipGroupMessages bool     `mapstructure:"skip_group_messages"`
	AllowedSenders    []string `mapstructure:"allowed_senders"`
	RequiredKeywords  []string `mapstructure:"required_keywords"`
	Expression        string   `mapstructure:"expression"` // optional CEL, must evaluate to bool
}

type DispatchConfig struct {
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	QueueSize      int    `mapstructure:"queue_size"`
	Overflow       string `mapstructure:"overflow"` // "block", "drop", "reject" (default: "block")
}

type SessionConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	GroupID       string   `mapstructure:"group_id"`
	InboundTopic  string   `mapstructure:"inbound_topic"`
	OutboundTopic string   `mapstructure:"outbound_topic"`
	DLQTopic      string   `mapstructure:"dlq_topic"`
}

type DatabaseConfig struct {
	Redis RedisConfig
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DeduplicationConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TTLSeconds   int    `mapstructure:"ttl_seconds"`
	OnRedisError string `mapstructure:"on_redis_error"` // "allow", "reject" (default: "allow")
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
