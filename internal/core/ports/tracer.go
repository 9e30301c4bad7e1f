package ports

import "context"

// CacheHitAttributeKey is the span attribute the driver sets on a
// module's span to report whether it was served from cache, letting a
// SpanProcessor forward that fact to a Renderer without understanding
// spans itself.
const CacheHitAttributeKey = "synthcache.cache_hit"

// Tracer starts spans around units of driver work (per-module cache
// restore and synthesis) so a run can be traced end-to-end.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
	// Shutdown flushes and releases any resources held by the tracer.
	Shutdown(ctx context.Context) error
}

// Span is one traced unit of work.
type Span interface {
	End()
	RecordError(err error)
	SetAttribute(key string, value any)
}
