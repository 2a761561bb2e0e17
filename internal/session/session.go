package session

import (
	"context"
	"errors"

	"wahook/pkg/models"
)

var ErrNotReady = errors.New("session not ready")

// Payload is either a TextPayload or a LocationPayload.
type Payload interface {
	command(to string) models.SendCommand
}

type TextPayload struct {
	Text string
}

func (p TextPayload) command(to string) models.SendCommand {
	return models.SendCommand{To: to, Kind: models.SendKindText, Text: p.Text}
}

type LocationPayload struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

func (p LocationPayload) command(to string) models.SendCommand {
	lat, lng := p.Latitude, p.Longitude
	return models.SendCommand{
		To:        to,
		Kind:      models.SendKindLocation,
		Latitude:  &lat,
		Longitude: &lng,
		Name:      p.Name,
		Address:   p.Address,
	}
}

// Receipt identifies an accepted outbound message.
type Receipt struct {
	MessageID string
	Timestamp int64 // epoch seconds
}

type Sender interface {
	Send(ctx context.Context, recipient string, payload Payload) (Receipt, error)
}

// Session is the send capability plus the read-only ready flag.
type Session interface {
	Sender
	Ready() bool
}

type EventHandler interface {
	HandleEvent(ctx context.Context, ev models.InboundEvent) error
}
