package telemetry

import (
	"context"
	"testing"
)

func TestInitTracer_LazyConnect(t *testing.T) {
	// The gRPC exporter dials lazily, so an unreachable collector is not an error.
	shutdown, err := InitTracer(context.Background(), "districtmap-test", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shutdown()
}
