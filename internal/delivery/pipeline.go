package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"wahook/internal/config"
	"wahook/internal/constants"
	"wahook/internal/logger"
	"wahook/pkg/circuitbreaker"
	"wahook/pkg/logging"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
	"wahook/pkg/retry"
	"wahook/pkg/tracing"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Pipeline forwards qualifying events to the webhook endpoint with a bounded
// number of sequential attempts.
type Pipeline struct {
	cfg      config.WebhookConfig
	client   HTTPDoer
	breaker  *circuitbreaker.Wrapper
	newTimer func() retry.Timer
	now      func() time.Time
	logger   logger.Logger
}

type Option func(*Pipeline)

func WithHTTPClient(client HTTPDoer) Option {
	return func(p *Pipeline) {
		p.client = client
	}
}

func WithCircuitBreaker(w *circuitbreaker.Wrapper) Option {
	return func(p *Pipeline) {
		p.breaker = w
	}
}

func WithTimerFactory(f func() retry.Timer) Option {
	return func(p *Pipeline) {
		p.newTimer = f
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(cfg config.WebhookConfig, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		client:   &http.Client{},
		newTimer: retry.NewTimer,
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deliver reports whether the endpoint accepted the event within the
// configured number of attempts. Failures are only visible through logs and
// metrics.
func (p *Pipeline) Deliver(ctx context.Context, ev models.InboundEvent) bool {
	ctx, span := tracing.Tracer(constants.ServiceName).Start(ctx, "delivery.deliver")
	defer span.End()

	if ev.MessageID != "" {
		ctx = logging.WithMessageID(ctx, ev.MessageID)
	}

	start := time.Now()
	policy := retry.Policy{MaxAttempts: p.cfg.RetryAttempts, Delay: p.cfg.RetryDelay()}

	var last Attempt
	res := retry.Run(ctx, policy, p.newTimer(),
		func(ctx context.Context, n int) error {
			last = p.attempt(ctx, ev, n)
			p.recordAttempt(ctx, last)
			return last.Err()
		},
		func(n int, err error, delay time.Duration) {
			if p.cfg.Debug {
				p.logger.DebugwCtx(ctx, "Webhook retry scheduled",
					"attempt", n,
					"max_attempts", policy.MaxAttempts,
					"next_delay", delay,
				)
			}
		},
	)

	result := "failed"
	if res.Succeeded() {
		result = "delivered"
	}
	metrics.DeliveriesTotal.WithLabelValues(result).Inc()
	metrics.ObserveDeliveryDuration(time.Since(start), result)

	if !res.Succeeded() && p.cfg.LogErrors {
		p.logger.ErrorwCtx(ctx, "Webhook delivery failed",
			"attempts", res.Attempts,
			"max_attempts", policy.MaxAttempts,
			"sender", ev.Sender,
			"error", res.Err,
		)
	}

	return res.Succeeded()
}

func (p *Pipeline) attempt(ctx context.Context, ev models.InboundEvent, n int) Attempt {
	payload := models.NewWebhookPayload(ev, p.now())
	body, err := json.Marshal(payload)
	if err != nil {
		return Attempt{Number: n, Outcome: OutcomeTransportError, Message: err.Error()}
	}

	if p.cfg.Debug {
		p.logger.DebugwCtx(ctx, "Webhook request",
			"attempt", n,
			"endpoint", p.cfg.Endpoint,
			"payload", string(body),
		)
	}

	if p.breaker == nil {
		return p.exchange(ctx, body, n)
	}

	result, err := p.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		a := p.exchange(ctx, body, n)
		return a, a.Err()
	})
	if a, ok := result.(Attempt); ok {
		return a
	}

	msg := "circuit breaker rejected request"
	if err != nil {
		msg = err.Error()
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		msg = "circuit breaker open: " + msg
	}
	return Attempt{Number: n, Outcome: OutcomeTransportError, Message: msg}
}

// exchange performs a single POST bounded by the configured timeout.
func (p *Pipeline) exchange(ctx context.Context, body []byte, n int) Attempt {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Attempt{Number: n, Outcome: OutcomeTransportError, Message: err.Error()}
	}

	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Attempt{Number: n, Outcome: OutcomeTransportError, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return Attempt{Number: n, Outcome: OutcomeHTTPError, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return Attempt{Number: n, Outcome: OutcomeSuccess, StatusCode: resp.StatusCode, Body: string(respBody)}
}

func (p *Pipeline) recordAttempt(ctx context.Context, a Attempt) {
	metrics.DeliveryAttemptsTotal.WithLabelValues(string(a.Outcome)).Inc()

	switch {
	case a.Outcome == OutcomeSuccess && p.cfg.LogSuccess:
		p.logger.InfowCtx(ctx, "Event forwarded to webhook",
			"attempt", a.Number,
			"status", a.StatusCode,
		)
	case a.Outcome != OutcomeSuccess && p.cfg.LogErrors:
		p.logger.WarnwCtx(ctx, "Webhook delivery attempt failed",
			"attempt", a.Number,
			"max_attempts", p.cfg.RetryAttempts,
			"outcome", a.Outcome,
			"status", a.StatusCode,
			"error", a.Err(),
		)
	}

	if p.cfg.Debug {
		p.logger.DebugwCtx(ctx, "Webhook response",
			"attempt", a.Number,
			"outcome", a.Outcome,
			"status", a.StatusCode,
			"body", a.Body,
		)
	}
}
