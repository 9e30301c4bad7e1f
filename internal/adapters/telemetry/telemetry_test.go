package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/synthcache/internal/adapters/telemetry"
)

func TestBridge_Integration(t *testing.T) {
	mock := newMockRenderer(t)
	bridge := telemetry.NewBridge(mock)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	tracer := tp.Tracer("test-bridge")

	_, span := tracer.Start(context.Background(), "module-a")
	time.Sleep(10 * time.Millisecond)

	mock.mu.Lock()
	startCalls := mock.startCalls
	mock.mu.Unlock()
	assert.Equal(t, 1, startCalls)

	span.End()
	time.Sleep(10 * time.Millisecond)

	mock.mu.Lock()
	resultCalls := mock.resultCalls
	mock.mu.Unlock()
	assert.Equal(t, 1, resultCalls)

	_, spanErr := tracer.Start(context.Background(), "module-b")
	time.Sleep(10 * time.Millisecond)

	spanErr.RecordError(errors.New("some error"))
	spanErr.SetStatus(codes.Error, "module failed explicitly")
	spanErr.End()
	time.Sleep(10 * time.Millisecond)

	mock.mu.Lock()
	resultCalls = mock.resultCalls
	mock.mu.Unlock()
	assert.Equal(t, 2, resultCalls)
}

func TestBridge_NoRenderer(t *testing.T) {
	bridge := telemetry.NewBridge(nil)
	assert.NotNil(t, bridge)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "test")
	span.End()
}

func TestBridge_ReportsCacheHit(t *testing.T) {
	mock := newMockRenderer(t)
	bridge := telemetry.NewBridge(mock)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "cached-module")
	span.SetAttributes(attribute.Bool(telemetry.CacheHitAttributeKey, true))
	span.End()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	assert.Equal(t, 1, mock.resultCalls)
	assert.True(t, mock.lastCached)
}
