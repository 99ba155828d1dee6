package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rgoulding/trackline/internal/logging"
	"github.com/rgoulding/trackline/internal/models"
)

// Subjects published when content changes. Downstream consumers (search
// indexers, notification fanout) subscribe to these.
const (
	SubjectPostCreated  = "content.post.created"
	SubjectPostDeleted  = "content.post.deleted"
	SubjectTrackCreated = "content.track.created"
	SubjectTrackDeleted = "content.track.deleted"
)

// ContentEvent is the wire payload for content lifecycle events
type ContentEvent struct {
	Kind       models.Kind `json:"kind"`
	ID         string      `json:"id"`
	AuthorID   string      `json:"authorId,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Publisher emits content lifecycle events
type Publisher interface {
	PublishCreated(ctx context.Context, kind models.Kind, id, authorID string) error
	PublishDeleted(ctx context.Context, kind models.Kind, id string) error
	Close()
}

// NATSPublisher publishes content events to a NATS server
type NATSPublisher struct {
	nc     *nats.Conn
	logger *logging.Logger
}

// Connect dials the NATS server and returns a publisher backed by it
func Connect(url string, logger *logging.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc, logger: logger}, nil
}

func (p *NATSPublisher) publish(subject string, event ContentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("published event",
		logging.WithField("subject", subject),
		logging.WithField("id", event.ID))
	return nil
}

func (p *NATSPublisher) PublishCreated(ctx context.Context, kind models.Kind, id, authorID string) error {
	subject := SubjectPostCreated
	if kind == models.KindTrack {
		subject = SubjectTrackCreated
	}
	return p.publish(subject, ContentEvent{
		Kind:       kind,
		ID:         id,
		AuthorID:   authorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NATSPublisher) PublishDeleted(ctx context.Context, kind models.Kind, id string) error {
	subject := SubjectPostDeleted
	if kind == models.KindTrack {
		subject = SubjectTrackDeleted
	}
	return p.publish(subject, ContentEvent{
		Kind:       kind,
		ID:         id,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NATSPublisher) Close() {
	p.nc.Drain()
}

// NoopPublisher discards events. Used when no NATS URL is configured and
// in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishCreated(ctx context.Context, kind models.Kind, id, authorID string) error {
	return nil
}

func (NoopPublisher) PublishDeleted(ctx context.Context, kind models.Kind, id string) error {
	return nil
}

func (NoopPublisher) Close() {}
