package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"wahook/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("gateway.port", constants.DefaultGatewayPort)
	viper.SetDefault("gateway.read_timeout", constants.DefaultReadTimeout)
	viper.SetDefault("gateway.write_timeout", constants.DefaultWriteTimeout)

	viper.SetDefault("webhook.timeout_ms", constants.DefaultWebhookTimeoutMs)
	viper.SetDefault("webhook.retry_attempts", constants.DefaultRetryAttempts)
	viper.SetDefault("webhook.retry_delay_ms", constants.DefaultRetryDelayMs)
	viper.SetDefault("webhook.log_success", true)
	viper.SetDefault("webhook.log_errors", true)

	viper.SetDefault("dispatch.max_concurrency", constants.DefaultMaxConcurrency)
	viper.SetDefault("dispatch.queue_size", constants.DefaultQueueSize)
	viper.SetDefault("dispatch.overflow", constants.OverflowBlock)

	viper.SetDefault("session.type", constants.SessionTypeKafka)

	viper.SetDefault("deduplication.ttl_seconds", constants.DefaultTTLSeconds)
	viper.SetDefault("deduplication.on_redis_error", constants.FallbackAllow)

	viper.SetDefault("logging.level", "info")
}

func bindEnvVariables() {
	viper.BindEnv("webhook.enabled", "WEBHOOK_ENABLED")
	viper.BindEnv("webhook.endpoint", "WEBHOOK_ENDPOINT")
	viper.BindEnv("webhook.api_key", "WEBHOOK_API_KEY")
	viper.BindEnv("webhook.timeout_ms", "WEBHOOK_TIMEOUT_MS")
	viper.BindEnv("webhook.retry_attempts", "WEBHOOK_RETRY_ATTEMPTS")
	viper.BindEnv("webhook.retry_delay_ms", "WEBHOOK_RETRY_DELAY_MS")
	viper.BindEnv("webhook.debug", "WEBHOOK_DEBUG")

	viper.BindEnv("gateway.port", "GATEWAY_PORT")
	viper.BindEnv("gateway.auth_token", "GATEWAY_AUTH_TOKEN")

	viper.BindEnv("session.kafka.brokers", "SESSION_KAFKA_BROKERS")
	viper.BindEnv("session.kafka.group_id", "SESSION_KAFKA_GROUP_ID")
	viper.BindEnv("session.kafka.inbound_topic", "SESSION_KAFKA_INBOUND_TOPIC")
	viper.BindEnv("session.kafka.outbound_topic", "SESSION_KAFKA_OUTBOUND_TOPIC")
	viper.BindEnv("session.kafka.dlq_topic", "SESSION_KAFKA_DLQ_TOPIC")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("SESSION_KAFKA_BROKERS"); brokersEnv != "" {
		cfg.Session.Kafka.Brokers = splitList(brokersEnv)
	}

	if senders := viper.GetString("WEBHOOK_FILTERS_ALLOWED_SENDERS"); senders != "" {
		cfg.Webhook.Filters.AllowedSenders = splitList(senders)
	}

	if keywords := viper.GetString("WEBHOOK_FILTERS_REQUIRED_KEYWORDS"); keywords != "" {
		cfg.Webhook.Filters.RequiredKeywords = splitList(keywords)
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
