package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
	"wahook/pkg/errors"
	"wahook/pkg/logging"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
	"wahook/pkg/tracing"
)

const fetchErrorBackoff = time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, env models.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	headers := tracing.InjectHeaders(ctx, nil)

	start := time.Now()
	err = p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   topic,
			Key:     []byte(env.ID),
			Value:   body,
			Headers: headers,
			Time:    time.Now(),
		},
	)
	metrics.ObserveKafkaWriteDuration(topic, time.Since(start))

	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.KafkaMessagesWrittenTotal.WithLabelValues(topic).Inc()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	mu          sync.Mutex
	readers     []messageReader
	newReader   func(topic string) messageReader
	logger      logger.Logger
	dlqProducer Producer
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	consumer := &KafkaConsumer{
		cfg:    cfg,
		logger: log,
	}
	consumer.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}

	if cfg.DLQTopic != "" {
		consumer.dlqProducer = NewKafkaProducer(cfg, log)
	}

	return consumer
}

// Consume blocks, handing envelopes from topic to handler one at a time until
// ctx is done. Offsets are committed whatever the handler outcome.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
	)

	reader := c.newReader(topic)
	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	consumeCtx := logging.WithServiceName(ctx, constants.ServiceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming", "topic", topic)

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", "context canceled",
				)
				return nil
			}
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchErrorBackoff):
			}
			continue
		}

		metrics.KafkaMessagesReadTotal.WithLabelValues(topic).Inc()
		c.handleMessage(ctx, reader, m, topic, handler)
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, reader messageReader, m kafka.Message, topic string, handler HandlerFunc) {
	msgCtx, span := tracing.StartConsumerSpan(ctx, "kafka.consume", m)
	defer span.End()

	defer c.commit(ctx, reader, m, topic)

	var env models.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to unmarshal envelope",
			"error", err,
			"topic", topic,
			"offset", m.Offset,
		)
		return
	}

	if err := models.ValidateEnvelope(&env); err != nil {
		c.logger.WarnwCtx(msgCtx, "Invalid envelope",
			"error", err,
			"topic", topic,
			"offset", m.Offset,
		)
		return
	}

	if env.ID != "" {
		msgCtx = logging.WithMessageID(msgCtx, env.ID)
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		msgCtx = logging.WithTraceID(msgCtx, sc.TraceID().String())
	}

	err := c.safeHandle(msgCtx, env, handler, topic)
	if err == nil {
		return
	}

	c.logger.ErrorwCtx(msgCtx, "Failed to process envelope",
		"error", err,
		"topic", topic,
	)
	if c.dlqProducer == nil {
		c.logger.WarnwCtx(msgCtx, "No DLQ configured, committing envelope to avoid blocking",
			"topic", topic,
		)
		return
	}
	if dlqErr := c.sendToDLQ(msgCtx, env, err, topic); dlqErr != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to send envelope to DLQ",
			"error", dlqErr,
			"topic", topic,
		)
	}
}

func (c *KafkaConsumer) safeHandle(ctx context.Context, env models.Envelope, handler HandlerFunc, topic string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
			c.logger.ErrorwCtx(ctx, "Panic recovered during envelope processing",
				"error", err,
				"topic", topic,
			)
		}
	}()
	return handler(ctx, env)
}

func (c *KafkaConsumer) commit(ctx context.Context, reader messageReader, m kafka.Message, topic string) {
	if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.logger.ErrorwCtx(ctx, "Failed to commit message",
			"error", err,
			"topic", topic,
		)
	}
}

func (c *KafkaConsumer) sendToDLQ(ctx context.Context, env models.Envelope, originalErr error, sourceTopic string) error {
	env.DLQReason = originalErr.Error()
	env.SourceTopic = sourceTopic

	if err := c.dlqProducer.Publish(ctx, c.cfg.DLQTopic, env); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	metrics.DLQMessagesTotal.WithLabelValues(sourceTopic, "handler_error").Inc()
	c.logger.InfowCtx(ctx, "Envelope sent to DLQ",
		"source_topic", sourceTopic,
		"dlq_topic", c.cfg.DLQTopic,
		"reason", originalErr.Error(),
	)

	return nil
}

func (c *KafkaConsumer) Close() error {
	var err error
	c.mu.Lock()
	for _, r := range c.readers {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.readers = nil
	c.mu.Unlock()

	if c.dlqProducer != nil {
		if closeErr := c.dlqProducer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
