package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/synthcache/internal/core/ports"
)

// CacheHitAttributeKey re-exports ports.CacheHitAttributeKey for callers
// that only import this package.
const CacheHitAttributeKey = ports.CacheHitAttributeKey

// Bridge implements sdktrace.SpanProcessor to forward module spans to
// a Renderer, decoupling the driver's tracing from its presentation.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	b.renderer.OnModuleStart(s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "module processing failed"
		}
		err = errors.New(desc)
	}

	var cached bool
	for _, attr := range s.Attributes() {
		if string(attr.Key) == CacheHitAttributeKey {
			cached = attr.Value.AsBool()
			break
		}
	}

	b.renderer.OnModuleResult(s.Name(), cached, s.EndTime(), err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
