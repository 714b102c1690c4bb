package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/districtmap/internal/core/usecases"
)

// Pinger is a backing service the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Map      *usecases.MapService
	Datasets *usecases.DatasetService // nil unless datasets live in PostgreSQL
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
}
