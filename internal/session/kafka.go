package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"wahook/internal/broker"
	"wahook/internal/config"
	"wahook/internal/logger"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
)

// KafkaSession talks to the messaging session process over the broker. It
// publishes send commands and tracks readiness from state envelopes.
type KafkaSession struct {
	producer      broker.Producer
	outboundTopic string
	handler       EventHandler
	logger        logger.Logger
	ready         atomic.Bool
	now           func() time.Time
	newID         func() string
}

func NewKafkaSession(producer broker.Producer, cfg config.KafkaConfig, handler EventHandler, log logger.Logger) *KafkaSession {
	metrics.SetSessionReady(false)
	return &KafkaSession{
		producer:      producer,
		outboundTopic: cfg.OutboundTopic,
		handler:       handler,
		logger:        log,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

func (s *KafkaSession) Ready() bool {
	return s.ready.Load()
}

func (s *KafkaSession) setReady(ready bool) {
	if s.ready.Swap(ready) != ready {
		metrics.SetSessionReady(ready)
	}
}

func (s *KafkaSession) Send(ctx context.Context, recipient string, payload Payload) (Receipt, error) {
	if !s.Ready() {
		return Receipt{}, ErrNotReady
	}

	cmd := payload.command(recipient)
	body, err := json.Marshal(cmd)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal send command: %w", err)
	}

	now := s.now()
	env := models.Envelope{
		ID:        s.newID(),
		Type:      models.EnvelopeTypeSend,
		Timestamp: now.UTC(),
		Payload:   body,
	}

	if err := s.producer.Publish(ctx, s.outboundTopic, env); err != nil {
		return Receipt{}, fmt.Errorf("publish send command: %w", err)
	}

	s.logger.DebugwCtx(ctx, "Send command published",
		"message_id", env.ID,
		"to", recipient,
		"kind", cmd.Kind,
	)

	return Receipt{MessageID: env.ID, Timestamp: now.Unix()}, nil
}

// HandleEnvelope is the broker handler for the inbound topic. Only handler
// rejections are returned; malformed envelopes are logged and dropped.
func (s *KafkaSession) HandleEnvelope(ctx context.Context, env models.Envelope) error {
	switch env.Type {
	case models.EnvelopeTypeMessage:
		ev, err := DecodeInboundEvent(env)
		if err != nil {
			metrics.InboundEventsTotal.WithLabelValues(env.Type, "invalid").Inc()
			s.logger.WarnwCtx(ctx, "Rejected malformed inbound event",
				"envelope_id", env.ID,
				"error", err,
			)
			return nil
		}
		if err := s.handler.HandleEvent(ctx, ev); err != nil {
			metrics.InboundEventsTotal.WithLabelValues(env.Type, "rejected").Inc()
			return err
		}
		metrics.InboundEventsTotal.WithLabelValues(env.Type, "accepted").Inc()
		return nil

	case models.EnvelopeTypeState:
		st, err := DecodeState(env)
		if err != nil {
			metrics.InboundEventsTotal.WithLabelValues(env.Type, "invalid").Inc()
			s.logger.WarnwCtx(ctx, "Rejected malformed state envelope",
				"envelope_id", env.ID,
				"error", err,
			)
			return nil
		}
		ready := st.State == models.SessionStateReady
		s.setReady(ready)
		metrics.InboundEventsTotal.WithLabelValues(env.Type, "accepted").Inc()
		s.logger.InfowCtx(ctx, "Session state changed",
			"state", st.State,
			"ready", ready,
		)
		return nil

	default:
		metrics.InboundEventsTotal.WithLabelValues(env.Type, "ignored").Inc()
		s.logger.DebugwCtx(ctx, "Ignoring envelope", "type", env.Type)
		return nil
	}
}
