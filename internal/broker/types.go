package broker

import (
	"context"

	"wahook/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, env models.Envelope) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
}

// HandlerFunc processes one envelope. A returned error routes the envelope to
// the dead-letter topic when one is configured.
type HandlerFunc func(ctx context.Context, env models.Envelope) error
