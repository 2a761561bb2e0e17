package constants

import "time"

const (
	ServiceName = "relay-service"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultWebhookTimeoutMs = 10000
	DefaultRetryAttempts    = 3
	DefaultRetryDelayMs     = 1000
	MaxErrorBodyBytes       = 4096
)

const (
	DefaultGatewayPort  = 3000
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	MaxRequestBodyBytes = 1 << 20
)

const (
	DefaultMaxConcurrency = 16
	DefaultQueueSize      = 256
)

const (
	OverflowBlock  = "block"
	OverflowDrop   = "drop"
	OverflowReject = "reject"
)

const (
	SessionTypeKafka = "kafka"
)

const (
	CacheKeyPrefixDedup = "relay:dedup:"
	DefaultTTLSeconds   = 3600
	DedupReleaseTimeout = 2 * time.Second
)

const (
	FallbackAllow  = "allow"
	FallbackReject = "reject"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	SuffixDirectChat = "@c.us"
	SuffixGroupChat  = "@g.us"
)
