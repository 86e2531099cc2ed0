// Package publisher forwards finalized recognition segments over NATS.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/speechkit/internal/core"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// ErrSubjectEmpty indicates that no subject was configured.
var ErrSubjectEmpty = errors.New("segment subject cannot be empty")

// NatsPublisher publishes segments as JSON on a NATS subject.
type NatsPublisher struct {
	natsConnection *nats.Conn
	subject        string
}

// New creates a NatsPublisher.
func New(natsConnection *nats.Conn, subject string) (*NatsPublisher, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &NatsPublisher{natsConnection: natsConnection, subject: subject}, nil
}

// Publish sends one segment.
func (p *NatsPublisher) Publish(ctx context.Context, segment core.Segment) error {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("publish of segment %s canceled: %w", segment.ResultID, ctxErr)
	}

	data, err := json.Marshal(segment)
	if err != nil {
		return fmt.Errorf("failed to marshal segment %s: %w", segment.ResultID, err)
	}

	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish segment %s on %s: %w", segment.ResultID, p.subject, err)
	}

	return nil
}
