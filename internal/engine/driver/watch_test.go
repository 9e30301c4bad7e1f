package driver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/synthcache/internal/adapters/cache"
	"go.trai.ch/synthcache/internal/adapters/synthstub"
	"go.trai.ch/synthcache/internal/adapters/telemetry"
	"go.trai.ch/synthcache/internal/adapters/watcher"
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports/mocks"
	"go.trai.ch/synthcache/internal/engine/driver"
)

func TestDriver_WatchReportsInitialAndReloadedRuns(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", leafFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	var report bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, watcher.NewPoller(nil), driver.WatchOptions{
			Files:              []string{src},
			PollIntervalMillis: 20,
			Report:             &report,
			Run:                driver.RunOptions{Sources: []string{src}},
		})
	}()

	require.Eventually(t, func() bool {
		return bytes.Count(report.Bytes(), []byte("\n")) >= 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(src, []byte(leafFixtureModified), 0o644))

	require.Eventually(t, func() bool {
		return bytes.Count(report.Bytes(), []byte("\n")) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	lines := bytes.Split(bytes.TrimRight(report.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.Equal(t, "synthesis_complete", first["event"])
	require.Empty(t, first["changed_files"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	changed, ok := second["changed_files"].([]any)
	require.True(t, ok)
	require.Len(t, changed, 1)
	require.Equal(t, src, changed[0])
}

// flakyEngine wraps a real engine but fails Elaborate for a controlled
// range of calls, so a reload cycle's reader-failure path can be driven
// deterministically.
type flakyEngine struct {
	*synthstub.Engine

	mu      sync.Mutex
	calls   int
	failMin int
	failMax int
}

func (f *flakyEngine) Elaborate(sources []string, top string) ([]*domain.Module, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if n >= f.failMin && n <= f.failMax {
		return nil, errors.New("simulated reload read failure")
	}
	return f.Engine.Elaborate(sources, top)
}

// countingLogger records how many times Error was called, without
// caring about Info/Warn traffic.
type countingLogger struct {
	mu     sync.Mutex
	errors int
}

func (l *countingLogger) Info(string) {}
func (l *countingLogger) Warn(string) {}
func (l *countingLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors++
}

func (l *countingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors
}

func TestDriver_WatchWarnsOnceEveryFiveConsecutiveReloadFailures(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", leafFixture)

	codec := synthstub.NewJSONCodec()
	store, err := cache.NewStore(filepath.Join(dir, "cache"), codec, codec, nil, 64)
	require.NoError(t, err)

	// Call 1 is the initial run (must succeed). Calls 2-6 are the next
	// five reload cycles, all failing: the fifth consecutive failure
	// (call 6) should produce exactly one logged error. Call 7 succeeds.
	engine := &flakyEngine{Engine: synthstub.NewEngine(), failMin: 2, failMax: 6}
	logger := &countingLogger{}
	renderer := mocks.NewMockRenderer(gomock.NewController(t))
	renderer.EXPECT().Start().Return(nil).AnyTimes()
	renderer.EXPECT().Stop().Return(nil).AnyTimes()
	renderer.EXPECT().OnModuleStart(gomock.Any(), gomock.Any()).AnyTimes()
	renderer.EXPECT().OnModuleResult(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	renderer.EXPECT().OnRunComplete(gomock.Any()).AnyTimes()

	d := driver.New(engine, store, telemetry.NewNoOpTracer(), renderer, logger)

	var report bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Watch(ctx, watcher.NewPoller(nil), driver.WatchOptions{
			Files:              []string{src},
			PollIntervalMillis: 20,
			Report:             &report,
			Run:                driver.RunOptions{Sources: []string{src}},
		})
	}()

	require.Eventually(t, func() bool {
		return bytes.Count(report.Bytes(), []byte("\n")) >= 1
	}, time.Second, 10*time.Millisecond)

	// Six writes, each spaced past the debounce window: the first five
	// drive calls 2-6 (all failures), the sixth drives call 7 (success).
	for i := 0; i < 6; i++ {
		time.Sleep(200 * time.Millisecond)
		require.NoError(t, os.WriteFile(src, []byte(leafFixture+"\n# "+time.Now().String()), 0o644))
	}

	require.Eventually(t, func() bool {
		return bytes.Count(report.Bytes(), []byte("\n")) >= 2
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, 1, logger.errorCount(), "exactly one warning expected for the five consecutive reload failures")
}
