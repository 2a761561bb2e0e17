package deduplication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"wahook/pkg/circuitbreaker"
)

// BreakerStore fails claims fast while the dedup store keeps erroring, so the
// guard falls back to its on_redis_error policy without waiting on timeouts.
type BreakerStore struct {
	next Store
	cb   *circuitbreaker.Wrapper
}

func NewBreakerStore(next Store, cb *circuitbreaker.Wrapper) *BreakerStore {
	return &BreakerStore{next: next, cb: cb}
}

func (s *BreakerStore) Claim(ctx context.Context, messageID string, seenAt time.Time, ttl time.Duration) (bool, error) {
	result, err := s.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return s.next.Claim(ctx, messageID, seenAt, ttl)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("dedup store breaker %s: %w", s.cb.Name(), err)
		}
		return false, err
	}

	first, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("dedup store returned %T", result)
	}
	return first, nil
}

func (s *BreakerStore) Release(ctx context.Context, messageID string) error {
	_, err := s.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, s.next.Release(ctx, messageID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("dedup store breaker %s: %w", s.cb.Name(), err)
	}
	return err
}
