package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FilterDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_filter_decisions_total",
			Help: "Total number of inbound events evaluated by the filter engine (count)",
		},
		[]string{"decision", "reason"},
	)

	InboundEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_inbound_events_total",
			Help: "Total number of envelopes read from the session inbound topic (count)",
		},
		[]string{"type", "status"},
	)

	DeliveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_delivery_attempts_total",
			Help: "Total number of HTTP delivery attempts (count)",
		},
		[]string{"outcome"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Total number of events whose delivery concluded (count)",
		},
		[]string{"result"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_delivery_duration_ms",
			Help:    "Duration of a full delivery including retries in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"result"},
	)

	DispatchQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_dispatch_queue_size",
			Help: "Current number of events waiting for a delivery worker (count)",
		},
	)

	DispatchInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_dispatch_in_flight",
			Help: "Current number of deliveries being processed by workers (count)",
		},
	)

	DispatchOverflowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dispatch_overflow_total",
			Help: "Total number of events not queued because the queue was full (count)",
		},
		[]string{"policy"},
	)

	DispatchQueueWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_dispatch_queue_wait_duration_ms",
			Help:    "Duration events wait in queue before a worker picks them up in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dedup_checks_total",
			Help: "Total number of redelivery checks against the dedup store (count)",
		},
		[]string{"status"},
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gateway_requests_total",
			Help: "Total number of control-plane requests (count)",
		},
		[]string{"route", "status"},
	)

	GatewaySendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gateway_sends_total",
			Help: "Total number of send calls made to the session (count)",
		},
		[]string{"type", "status"},
	)

	SessionReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_session_ready",
			Help: "Whether the messaging session completed its ready handshake (0 or 1)",
		},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dlq_messages_total",
			Help: "Total number of envelopes sent to DLQ (count)",
		},
		[]string{"topic", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func RegisterRelayMetrics() {
	prometheus.MustRegister(FilterDecisionsTotal)
	prometheus.MustRegister(InboundEventsTotal)
	prometheus.MustRegister(DeliveryAttemptsTotal)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(DispatchQueueSize)
	prometheus.MustRegister(DispatchInFlight)
	prometheus.MustRegister(DispatchOverflowTotal)
	prometheus.MustRegister(DispatchQueueWaitDuration)
	prometheus.MustRegister(DedupChecksTotal)
}

func RegisterGatewayMetrics() {
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewaySendsTotal)
	prometheus.MustRegister(SessionReady)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func ObserveDeliveryDuration(duration time.Duration, result string) {
	DeliveryDuration.WithLabelValues(result).Observe(float64(duration.Milliseconds()))
}

func ObserveQueueWait(duration time.Duration) {
	DispatchQueueWaitDuration.Observe(float64(duration.Milliseconds()))
}

func ObserveKafkaWriteDuration(topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(topic).Observe(float64(duration.Milliseconds()))
}

func SetSessionReady(ready bool) {
	if ready {
		SessionReady.Set(1)
		return
	}
	SessionReady.Set(0)
}
