package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/synthcache/internal/core/ports/mocks"
)

// mockRenderer wraps a generated mocks.MockRenderer as a spy that
// counts calls per method, for tests that assert on call counts rather
// than argument values.
type mockRenderer struct {
	*mocks.MockRenderer

	mu            sync.Mutex
	startCalls    int
	resultCalls   int
	completeCalls int
	lastCached    bool
}

func newMockRenderer(t *testing.T) *mockRenderer {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &mockRenderer{MockRenderer: mocks.NewMockRenderer(ctrl)}

	m.EXPECT().Start().Return(nil).AnyTimes()
	m.EXPECT().Stop().Return(nil).AnyTimes()
	m.EXPECT().OnModuleStart(gomock.Any(), gomock.Any()).DoAndReturn(func(_ string, _ time.Time) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.startCalls++
	}).AnyTimes()
	m.EXPECT().OnModuleResult(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ string, cached bool, _ time.Time, _ error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.resultCalls++
		m.lastCached = cached
	}).AnyTimes()
	m.EXPECT().OnRunComplete(gomock.Any()).DoAndReturn(func(_ ports.RunStats) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.completeCalls++
	}).AnyTimes()

	return m
}
