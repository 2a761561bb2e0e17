package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahook/internal/config"
	"wahook/internal/logger"
	"wahook/pkg/models"
)

type recordingProducer struct {
	topic string
	envs  []models.Envelope
	err   error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, env models.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type recordingHandler struct {
	events []models.InboundEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, ev models.InboundEvent) error {
	h.events = append(h.events, ev)
	return h.err
}

func newTestSession(p *recordingProducer, h *recordingHandler) *KafkaSession {
	s := NewKafkaSession(p, config.KafkaConfig{OutboundTopic: "session.outbound"}, h, logger.NopLogger())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	s.newID = func() string { return "msg-1" }
	return s
}

func stateEnvelope(state string) models.Envelope {
	return models.Envelope{
		ID:      "s1",
		Type:    models.EnvelopeTypeState,
		Payload: json.RawMessage(`{"state":"` + state + `"}`),
	}
}

func TestKafkaSession_SendBeforeReady(t *testing.T) {
	p := &recordingProducer{}
	s := newTestSession(p, &recordingHandler{})

	_, err := s.Send(context.Background(), "1@c.us", TextPayload{Text: "hi"})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, p.envs)
}

func TestKafkaSession_ReadinessFollowsState(t *testing.T) {
	s := newTestSession(&recordingProducer{}, &recordingHandler{})
	ctx := context.Background()

	assert.False(t, s.Ready())
	require.NoError(t, s.HandleEnvelope(ctx, stateEnvelope("ready")))
	assert.True(t, s.Ready())
	require.NoError(t, s.HandleEnvelope(ctx, stateEnvelope("disconnected")))
	assert.False(t, s.Ready())
}

func TestKafkaSession_SendText(t *testing.T) {
	p := &recordingProducer{}
	s := newTestSession(p, &recordingHandler{})
	require.NoError(t, s.HandleEnvelope(context.Background(), stateEnvelope("ready")))

	receipt, err := s.Send(context.Background(), "15551234567@c.us", TextPayload{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, Receipt{MessageID: "msg-1", Timestamp: 1700000000}, receipt)

	require.Len(t, p.envs, 1)
	assert.Equal(t, "session.outbound", p.topic)
	assert.Equal(t, "msg-1", p.envs[0].ID)
	assert.Equal(t, models.EnvelopeTypeSend, p.envs[0].Type)
	assert.JSONEq(t, `{"to":"15551234567@c.us","kind":"text","text":"hello"}`, string(p.envs[0].Payload))
}

func TestKafkaSession_SendLocationKeepsZeroCoordinates(t *testing.T) {
	p := &recordingProducer{}
	s := newTestSession(p, &recordingHandler{})
	require.NoError(t, s.HandleEnvelope(context.Background(), stateEnvelope("ready")))

	_, err := s.Send(context.Background(), "1@c.us", LocationPayload{Latitude: 0, Longitude: 12.5, Name: "Null Island"})
	require.NoError(t, err)

	require.Len(t, p.envs, 1)
	assert.JSONEq(t,
		`{"to":"1@c.us","kind":"location","latitude":0,"longitude":12.5,"name":"Null Island"}`,
		string(p.envs[0].Payload))
}

func TestKafkaSession_SendPublishError(t *testing.T) {
	p := &recordingProducer{err: errors.New("broker unavailable")}
	s := newTestSession(p, &recordingHandler{})
	require.NoError(t, s.HandleEnvelope(context.Background(), stateEnvelope("ready")))

	_, err := s.Send(context.Background(), "1@c.us", TextPayload{Text: "hi"})
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestKafkaSession_HandleMessage(t *testing.T) {
	h := &recordingHandler{}
	s := newTestSession(&recordingProducer{}, h)

	env := models.Envelope{
		ID:   "env-9",
		Type: models.EnvelopeTypeMessage,
		Payload: json.RawMessage(`{
			"sender":"15551234567@c.us","body":"ping","messageId":"wamid-1",
			"chatType":"group","chatName":"Team","messageType":"chat",
			"hasMedia":true,"timestamp":1700000000,"isFromMe":false
		}`),
	}
	require.NoError(t, s.HandleEnvelope(context.Background(), env))

	require.Len(t, h.events, 1)
	ev := h.events[0]
	assert.Equal(t, "15551234567@c.us", ev.Sender)
	assert.Equal(t, "ping", ev.Body)
	assert.Equal(t, "wamid-1", ev.MessageID)
	assert.Equal(t, models.ChatTypeGroup, ev.ChatType)
	assert.Equal(t, "Team", ev.ChatName)
	assert.True(t, ev.HasMedia)
	assert.Equal(t, int64(1700000000), ev.Timestamp)
}

func TestKafkaSession_HandleMessageErrors(t *testing.T) {
	ctx := context.Background()

	h := &recordingHandler{}
	s := newTestSession(&recordingProducer{}, h)
	malformed := models.Envelope{ID: "x", Type: models.EnvelopeTypeMessage, Payload: json.RawMessage(`{"body":"no sender","chatType":"private"}`)}
	assert.NoError(t, s.HandleEnvelope(ctx, malformed))
	assert.Empty(t, h.events)

	rejected := errors.New("dispatch queue full")
	h = &recordingHandler{err: rejected}
	s = newTestSession(&recordingProducer{}, h)
	valid := models.Envelope{ID: "y", Type: models.EnvelopeTypeMessage, Payload: json.RawMessage(`{"sender":"a@c.us","chatType":"private"}`)}
	assert.ErrorIs(t, s.HandleEnvelope(ctx, valid), rejected)

	assert.NoError(t, s.HandleEnvelope(ctx, models.Envelope{ID: "z", Type: "receipt", Payload: json.RawMessage(`{}`)}))
}

func TestDecodeInboundEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		wantID  string
	}{
		{"valid", `{"sender":"a@c.us","chatType":"private","messageId":"m1"}`, false, "m1"},
		{"falls back to envelope id", `{"sender":"a@c.us","chatType":"private"}`, false, "env-1"},
		{"missing sender", `{"chatType":"private"}`, true, ""},
		{"bad chat type", `{"sender":"a@c.us","chatType":"channel"}`, true, ""},
		{"negative timestamp", `{"sender":"a@c.us","chatType":"group","timestamp":-1}`, true, ""},
		{"wrong field type", `{"sender":42}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeInboundEvent(models.Envelope{ID: "env-1", Payload: json.RawMessage(tt.payload)})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ev.MessageID)
		})
	}
}

func TestDecodeState_RequiresState(t *testing.T) {
	_, err := DecodeState(models.Envelope{Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}
