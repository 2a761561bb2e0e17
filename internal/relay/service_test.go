package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahook/internal/config"
	"wahook/internal/dispatch"
	"wahook/internal/filtering"
	"wahook/internal/logger"
	"wahook/pkg/models"
)

type recordingSubmitter struct {
	events []models.InboundEvent
	err    error
}

func (s *recordingSubmitter) Submit(_ context.Context, ev models.InboundEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

type fakeClaimer struct {
	seen     map[string]bool
	calls    int
	released []string
}

func (c *fakeClaimer) Claim(_ context.Context, ev models.InboundEvent) bool {
	c.calls++
	if c.seen[ev.MessageID] {
		return false
	}
	c.seen[ev.MessageID] = true
	return true
}

func (c *fakeClaimer) Release(_ context.Context, ev models.InboundEvent) {
	c.released = append(c.released, ev.MessageID)
	delete(c.seen, ev.MessageID)
}

func newEngine(t *testing.T, filters config.FiltersConfig) *filtering.Engine {
	t.Helper()
	e, err := filtering.NewEngine(config.WebhookConfig{Enabled: true, Filters: filters})
	require.NoError(t, err)
	return e
}

func inbound(id, sender, body string) models.InboundEvent {
	return models.InboundEvent{
		Sender:    sender,
		Body:      body,
		EventMeta: models.EventMeta{MessageID: id, ChatType: models.ChatTypePrivate},
	}
}

func TestService_SubmitsQualifyingEvents(t *testing.T) {
	sub := &recordingSubmitter{}
	s := NewService(newEngine(t, config.FiltersConfig{RequiredKeywords: []string{"order"}}), sub, logger.NopLogger())

	require.NoError(t, s.HandleEvent(context.Background(), inbound("1", "a@c.us", "New ORDER #42")))
	require.NoError(t, s.HandleEvent(context.Background(), inbound("2", "a@c.us", "hello")))

	require.Len(t, sub.events, 1)
	assert.Equal(t, "1", sub.events[0].MessageID)
}

func TestService_ClaimOnlyAfterFilterPasses(t *testing.T) {
	sub := &recordingSubmitter{}
	claimer := &fakeClaimer{seen: map[string]bool{}}
	s := NewService(newEngine(t, config.FiltersConfig{AllowedSenders: []string{"a@c.us"}}), sub, logger.NopLogger(), WithClaimer(claimer))
	ctx := context.Background()

	require.NoError(t, s.HandleEvent(ctx, inbound("1", "b@c.us", "hi")))
	assert.Zero(t, claimer.calls)

	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "hi")))
	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "hi")))
	assert.Equal(t, 2, claimer.calls)
	assert.Len(t, sub.events, 1)
}

func TestService_SubmitErrors(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, config.FiltersConfig{})

	dropped := NewService(engine, &recordingSubmitter{err: dispatch.ErrDropped}, logger.NopLogger())
	assert.NoError(t, dropped.HandleEvent(ctx, inbound("1", "a@c.us", "x")))

	rejected := NewService(engine, &recordingSubmitter{err: dispatch.ErrQueueFull}, logger.NopLogger())
	assert.ErrorIs(t, rejected.HandleEvent(ctx, inbound("1", "a@c.us", "x")), dispatch.ErrQueueFull)

	stopped := NewService(engine, &recordingSubmitter{err: dispatch.ErrStopped}, logger.NopLogger())
	assert.ErrorIs(t, stopped.HandleEvent(ctx, inbound("1", "a@c.us", "x")), dispatch.ErrStopped)
}

func TestService_RejectedEventCanBeReplayed(t *testing.T) {
	ctx := context.Background()
	sub := &recordingSubmitter{err: dispatch.ErrQueueFull}
	claimer := &fakeClaimer{seen: map[string]bool{}}
	s := NewService(newEngine(t, config.FiltersConfig{}), sub, logger.NopLogger(), WithClaimer(claimer))

	assert.ErrorIs(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "x")), dispatch.ErrQueueFull)
	assert.Equal(t, []string{"1"}, claimer.released)

	sub.err = nil
	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "x")))
	assert.Len(t, sub.events, 2)

	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "x")))
	assert.Len(t, sub.events, 2)
}

func TestService_DroppedEventKeepsClaim(t *testing.T) {
	ctx := context.Background()
	sub := &recordingSubmitter{err: dispatch.ErrDropped}
	claimer := &fakeClaimer{seen: map[string]bool{}}
	s := NewService(newEngine(t, config.FiltersConfig{}), sub, logger.NopLogger(), WithClaimer(claimer))

	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "x")))
	require.NoError(t, s.HandleEvent(ctx, inbound("1", "a@c.us", "x")))

	assert.Empty(t, claimer.released)
	assert.Len(t, sub.events, 1)
}

func TestService_DisabledRelaySubmitsNothing(t *testing.T) {
	engine, err := filtering.NewEngine(config.WebhookConfig{Enabled: false})
	require.NoError(t, err)
	sub := &recordingSubmitter{}

	require.NoError(t, NewService(engine, sub, logger.NopLogger()).HandleEvent(context.Background(), inbound("1", "a@c.us", "x")))
	assert.Empty(t, sub.events)
}
