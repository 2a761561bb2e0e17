package config

import (
	"fmt"
	"net/url"
	"strings"

	"wahook/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateGateway(cfg.Gateway); err != nil {
		errors = append(errors, err)
	}

	if err := validateServer(cfg.Server, cfg.Gateway); err != nil {
		errors = append(errors, err)
	}

	if err := validateWebhook(cfg.Webhook); err != nil {
		errors = append(errors, err)
	}

	if err := validateDispatch(cfg.Dispatch); err != nil {
		errors = append(errors, err)
	}

	if err := validateSession(cfg.Session); err != nil {
		errors = append(errors, err)
	}

	if err := validateDeduplication(cfg.Deduplication, cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateGateway(cfg GatewayConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "gateway.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if strings.TrimSpace(cfg.AuthToken) == "" {
		return &ValidationError{
			Field:   "gateway.auth_token",
			Message: "auth token is required",
		}
	}

	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return &ValidationError{
			Field:   "gateway.read_timeout",
			Message: "timeouts must be non-negative",
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1) {
		return &ValidationError{
			Field:   "gateway.rate_limit",
			Message: "rps must be positive and burst at least 1 when rate limiting is enabled",
		}
	}

	return nil
}

func validateServer(cfg ServerConfig, gateway GatewayConfig) error {
	if cfg.Port == 0 {
		return nil
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.Port == gateway.Port {
		return &ValidationError{
			Field:   "server.port",
			Message: "admin port must differ from gateway.port",
		}
	}

	return nil
}

func validateWebhook(cfg WebhookConfig) error {
	if cfg.RetryAttempts < 1 {
		return &ValidationError{
			Field:   "webhook.retry_attempts",
			Message: fmt.Sprintf("retry_attempts must be at least 1, got %d", cfg.RetryAttempts),
		}
	}

	if cfg.RetryDelayMs < 0 {
		return &ValidationError{
			Field:   "webhook.retry_delay_ms",
			Message: "retry_delay_ms must be non-negative",
		}
	}

	if cfg.TimeoutMs <= 0 {
		return &ValidationError{
			Field:   "webhook.timeout_ms",
			Message: "timeout_ms must be positive",
		}
	}

	if !cfg.Enabled {
		return nil
	}

	if cfg.Endpoint == "" {
		return &ValidationError{
			Field:   "webhook.endpoint",
			Message: "endpoint is required when the webhook is enabled",
		}
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{
			Field:   "webhook.endpoint",
			Message: fmt.Sprintf("endpoint must be an absolute http(s) URL, got %q", cfg.Endpoint),
		}
	}

	if cfg.APIKey == "" {
		return &ValidationError{
			Field:   "webhook.api_key",
			Message: "api_key is required when the webhook is enabled",
		}
	}

	return nil
}

func validateDispatch(cfg DispatchConfig) error {
	if cfg.MaxConcurrency < 1 {
		return &ValidationError{
			Field:   "dispatch.max_concurrency",
			Message: fmt.Sprintf("max_concurrency must be at least 1, got %d", cfg.MaxConcurrency),
		}
	}

	if cfg.QueueSize < 0 {
		return &ValidationError{
			Field:   "dispatch.queue_size",
			Message: "queue_size must be non-negative",
		}
	}

	validOverflow := map[string]bool{
		constants.OverflowBlock: true, constants.OverflowDrop: true, constants.OverflowReject: true,
	}
	if cfg.Overflow != "" && !validOverflow[strings.ToLower(cfg.Overflow)] {
		return &ValidationError{
			Field:   "dispatch.overflow",
			Message: fmt.Sprintf("invalid overflow policy: %s (valid: block, drop, reject)", cfg.Overflow),
		}
	}

	return nil
}

func validateSession(cfg SessionConfig) error {
	switch cfg.Type {
	case constants.SessionTypeKafka:
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "session.type",
			Message: fmt.Sprintf("unknown session type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "session.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("session.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "session.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.InboundTopic == "" {
		return &ValidationError{
			Field:   "session.kafka.inbound_topic",
			Message: "inbound topic is required",
		}
	}

	if cfg.OutboundTopic == "" {
		return &ValidationError{
			Field:   "session.kafka.outbound_topic",
			Message: "outbound topic is required",
		}
	}

	return nil
}

func validateDeduplication(cfg DeduplicationConfig, redis RedisConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if redis.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required when deduplication is enabled",
		}
	}

	if redis.Port < 1 || redis.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", redis.Port),
		}
	}

	if cfg.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "deduplication.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	validOnError := map[string]bool{
		constants.FallbackAllow: true, constants.FallbackReject: true,
	}
	if cfg.OnRedisError != "" && !validOnError[strings.ToLower(cfg.OnRedisError)] {
		return &ValidationError{
			Field:   "deduplication.on_redis_error",
			Message: fmt.Sprintf("invalid on_redis_error value: %s (valid: allow, reject)", cfg.OnRedisError),
		}
	}

	return nil
}
