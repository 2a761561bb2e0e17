package deduplication

import (
	"context"
	"time"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
	"wahook/pkg/tracing"
)

// Guard suppresses redelivered inbound events by claiming their message id.
type Guard struct {
	store  Store
	ttl    time.Duration
	allow  bool
	logger logger.Logger
	now    func() time.Time
}

func NewGuard(store Store, cfg config.DeduplicationConfig, log logger.Logger) *Guard {
	ttl := cfg.TTLSeconds
	if ttl <= 0 {
		ttl = constants.DefaultTTLSeconds
	}
	return &Guard{
		store:  store,
		ttl:    time.Duration(ttl) * time.Second,
		allow:  cfg.OnRedisError != constants.FallbackReject,
		logger: log,
		now:    time.Now,
	}
}

// Claim reports whether ev is seen for the first time. Events without a
// message id always pass. Store failures follow the on_redis_error policy.
func (g *Guard) Claim(ctx context.Context, ev models.InboundEvent) bool {
	if ev.MessageID == "" {
		metrics.DedupChecksTotal.WithLabelValues("skipped").Inc()
		return true
	}

	ctx, span := tracing.Tracer(constants.ServiceName).Start(ctx, "deduplication.claim")
	defer span.End()

	first, err := g.store.Claim(ctx, ev.MessageID, g.now(), g.ttl)
	if err != nil {
		metrics.DedupChecksTotal.WithLabelValues("error").Inc()
		g.logger.WarnwCtx(ctx, "Dedup store unavailable",
			"error", err,
			"message_id", ev.MessageID,
			"fallback_allow", g.allow,
		)
		return g.allow
	}

	if !first {
		metrics.DedupChecksTotal.WithLabelValues("duplicate").Inc()
		return false
	}

	metrics.DedupChecksTotal.WithLabelValues("unique").Inc()
	return true
}

// Release drops the claim on ev so a redelivery is processed again. It runs
// detached from ctx cancellation so a rejection during shutdown still clears
// the key.
func (g *Guard) Release(ctx context.Context, ev models.InboundEvent) {
	if ev.MessageID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DedupReleaseTimeout)
	defer cancel()

	if err := g.store.Release(ctx, ev.MessageID); err != nil {
		metrics.DedupChecksTotal.WithLabelValues("release_error").Inc()
		g.logger.WarnwCtx(ctx, "Dedup claim release failed",
			"error", err,
			"message_id", ev.MessageID,
		)
		return
	}
	metrics.DedupChecksTotal.WithLabelValues("released").Inc()
}
