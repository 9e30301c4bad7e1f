package telemetry

import (
	"context"

	"go.trai.ch/synthcache/internal/core/ports"
)

var (
	_ ports.Tracer = (*NoOpTracer)(nil)
	_ ports.Span   = (*NoOpSpan)(nil)
)

// NoOpTracer implements ports.Tracer without recording anything. It is
// wired in place of OTelTracer when no exporter is configured.
type NoOpTracer struct{}

// NewNoOpTracer creates a NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx unchanged along with a no-op span.
func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{}
}

// Shutdown is a no-op.
func (t *NoOpTracer) Shutdown(_ context.Context) error {
	return nil
}

// NoOpSpan implements ports.Span by discarding everything it's given.
type NoOpSpan struct{}

// End is a no-op.
func (s *NoOpSpan) End() {}

// RecordError is a no-op.
func (s *NoOpSpan) RecordError(_ error) {}

// SetAttribute is a no-op.
func (s *NoOpSpan) SetAttribute(_ string, _ any) {}
