package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Dataset updates are durable so a restarted API still rebuilds its map.
	stream := nats.StreamConfig{
		Name:      "DISTRICTMAP_DATASETS",
		Subjects:  []string{SubjectDatasetUpdated},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&stream); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&stream); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", stream.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishDatasetUpdated announces a stored dataset on JetStream.
func (p *Publisher) PublishDatasetUpdated(ctx context.Context, u *domain.DatasetUpdate) error {
	data, err := EncodeDatasetUpdate(u)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectDatasetUpdated, data, nats.Context(ctx))
	return err
}

// PublishMapUpdated broadcasts a new map document to WebSocket relays.
func (p *Publisher) PublishMapUpdated(ctx context.Context, u *domain.MapUpdate) error {
	data, err := EncodeMapUpdate(u)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectMapUpdated, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
