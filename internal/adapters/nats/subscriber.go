package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber. durable names the JetStream consumer,
// so each API instance should pass its own.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeDatasetUpdates delivers dataset-updated events to handler. Failed
// deliveries are redelivered up to three times.
func (s *Subscriber) SubscribeDatasetUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.DatasetUpdate) error) error {
	sub, err := s.js.Subscribe(SubjectDatasetUpdated, func(msg *nats.Msg) {
		u, err := DecodeDatasetUpdate(msg.Data)
		if err != nil {
			slog.Warn("dropping malformed dataset update", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, u); err != nil {
			slog.Error("dataset update handler failed", "dataset", u.Name, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
