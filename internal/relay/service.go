package relay

import (
	"context"
	"errors"
	"fmt"

	"wahook/internal/dispatch"
	"wahook/internal/filtering"
	"wahook/internal/logger"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
)

type Submitter interface {
	Submit(ctx context.Context, ev models.InboundEvent) error
}

// Claimer reports whether an event is seen for the first time. Release undoes
// a claim for an event that was not accepted.
type Claimer interface {
	Claim(ctx context.Context, ev models.InboundEvent) bool
	Release(ctx context.Context, ev models.InboundEvent)
}

// Service connects the event source to the delivery workers.
type Service struct {
	engine    *filtering.Engine
	claimer   Claimer
	submitter Submitter
	logger    logger.Logger
}

type Option func(*Service)

func WithClaimer(c Claimer) Option {
	return func(s *Service) {
		s.claimer = c
	}
}

func NewService(engine *filtering.Engine, submitter Submitter, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		submitter: submitter,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent filters ev once and hands qualifying events to the dispatcher.
// Submit failures other than a drop are returned and release the dedup
// claim, so a redelivery of the same event is not skipped as a duplicate.
func (s *Service) HandleEvent(ctx context.Context, ev models.InboundEvent) error {
	decision := s.engine.Decide(ev.Sender, ev.Body, ev.EventMeta)

	label := "skip"
	if decision.Forward {
		label = "forward"
	}
	metrics.FilterDecisionsTotal.WithLabelValues(label, string(decision.Reason)).Inc()

	if !decision.Forward {
		s.logger.DebugwCtx(ctx, "Event skipped by filter",
			"reason", decision.Reason,
			"sender", ev.Sender,
		)
		return nil
	}

	if s.claimer != nil && !s.claimer.Claim(ctx, ev) {
		s.logger.DebugwCtx(ctx, "Duplicate event skipped",
			"message_id", ev.MessageID,
		)
		return nil
	}

	err := s.submitter.Submit(ctx, ev)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dispatch.ErrDropped):
		return nil
	default:
		if s.claimer != nil {
			s.claimer.Release(ctx, ev)
		}
		return fmt.Errorf("submit event: %w", err)
	}
}
