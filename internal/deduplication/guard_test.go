package deduplication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahook/internal/config"
	"wahook/internal/logger"
	"wahook/pkg/circuitbreaker"
	"wahook/pkg/models"
)

type memoryStore struct {
	mu    sync.Mutex
	ttls  map[string]time.Duration
	calls int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{ttls: make(map[string]time.Duration)}
}

func (s *memoryStore) Claim(_ context.Context, messageID string, _ time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.ttls[messageID]; ok {
		return false, nil
	}
	s.ttls[messageID] = ttl
	return true, nil
}

func (s *memoryStore) Release(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	delete(s.ttls, messageID)
	return nil
}

func event(id string) models.InboundEvent {
	return models.InboundEvent{
		Sender:    "1@c.us",
		EventMeta: models.EventMeta{MessageID: id, ChatType: models.ChatTypePrivate},
	}
}

func TestGuard_ClaimOnce(t *testing.T) {
	repo := newMemoryStore()
	g := NewGuard(repo, config.DeduplicationConfig{TTLSeconds: 60}, logger.NopLogger())
	ctx := context.Background()

	assert.True(t, g.Claim(ctx, event("m1")))
	assert.False(t, g.Claim(ctx, event("m1")))
	assert.True(t, g.Claim(ctx, event("m2")))

	require.Contains(t, repo.ttls, "m1")
	assert.Equal(t, time.Minute, repo.ttls["m1"])
}

func TestGuard_DefaultTTL(t *testing.T) {
	repo := newMemoryStore()
	g := NewGuard(repo, config.DeduplicationConfig{}, logger.NopLogger())

	require.True(t, g.Claim(context.Background(), event("m1")))
	assert.Equal(t, time.Hour, repo.ttls["m1"])
}

func TestGuard_EmptyMessageIDAlwaysPasses(t *testing.T) {
	repo := newMemoryStore()
	g := NewGuard(repo, config.DeduplicationConfig{}, logger.NopLogger())

	assert.True(t, g.Claim(context.Background(), event("")))
	assert.True(t, g.Claim(context.Background(), event("")))
	assert.Empty(t, repo.ttls)
	assert.Zero(t, repo.calls)
}

func TestGuard_StoreErrorPolicy(t *testing.T) {
	tests := []struct {
		policy string
		want   bool
	}{
		{"allow", true},
		{"", true},
		{"reject", false},
	}

	for _, tt := range tests {
		t.Run("policy="+tt.policy, func(t *testing.T) {
			repo := newMemoryStore()
			repo.err = errors.New("connection refused")
			g := NewGuard(repo, config.DeduplicationConfig{OnRedisError: tt.policy}, logger.NopLogger())

			assert.Equal(t, tt.want, g.Claim(context.Background(), event("m1")))
		})
	}
}

func TestGuard_ReleaseAllowsReclaim(t *testing.T) {
	repo := newMemoryStore()
	g := NewGuard(repo, config.DeduplicationConfig{}, logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, g.Claim(ctx, event("m1")))
	cancel()

	g.Release(ctx, event("m1"))
	assert.NotContains(t, repo.ttls, "m1")
	assert.True(t, g.Claim(context.Background(), event("m1")))
}

func TestGuard_ReleaseSkipsEmptyIDAndSwallowsErrors(t *testing.T) {
	repo := newMemoryStore()
	g := NewGuard(repo, config.DeduplicationConfig{}, logger.NopLogger())

	g.Release(context.Background(), event(""))
	assert.Zero(t, repo.calls)

	repo.err = errors.New("connection refused")
	g.Release(context.Background(), event("m1"))
	assert.Equal(t, 1, repo.calls)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "relay:dedup:wamid-1", Key("wamid-1"))
}

func TestBreakerStore(t *testing.T) {
	cbCfg, enabled := circuitbreaker.FromConfig("redis-dedup", config.CircuitBreakerConfig{
		Enabled:      true,
		Timeout:      time.Hour,
		FailureRatio: 1,
		MinRequests:  2,
	})
	require.True(t, enabled)

	healthy := NewBreakerStore(newMemoryStore(), circuitbreaker.NewWrapper(cbCfg))
	first, err := healthy.Claim(context.Background(), "m1", time.Now(), time.Second)
	require.NoError(t, err)
	assert.True(t, first)
	first, err = healthy.Claim(context.Background(), "m1", time.Now(), time.Second)
	require.NoError(t, err)
	assert.False(t, first)
	require.NoError(t, healthy.Release(context.Background(), "m1"))
	first, err = healthy.Claim(context.Background(), "m1", time.Now(), time.Second)
	require.NoError(t, err)
	assert.True(t, first)

	failing := newMemoryStore()
	failing.err = errors.New("down")
	cb := circuitbreaker.NewWrapper(cbCfg)
	store := NewBreakerStore(failing, cb)
	for i := 0; i < 2; i++ {
		_, err := store.Claim(context.Background(), "m1", time.Now(), time.Second)
		assert.EqualError(t, err, "down")
	}
	assert.True(t, cb.IsOpen())

	_, err = store.Claim(context.Background(), "m1", time.Now(), time.Second)
	assert.ErrorContains(t, err, "dedup store breaker redis-dedup")
	assert.Equal(t, 2, failing.calls)

	err = store.Release(context.Background(), "m1")
	assert.ErrorContains(t, err, "dedup store breaker redis-dedup")
	assert.Equal(t, 2, failing.calls)

	// Guard falls back to its policy while the breaker is open.
	g := NewGuard(store, config.DeduplicationConfig{OnRedisError: "reject"}, logger.NopLogger())
	assert.False(t, g.Claim(context.Background(), event("m9")))
}
