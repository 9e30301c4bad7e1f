package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/synthcache/internal/adapters/cache"
	"go.trai.ch/synthcache/internal/adapters/synthstub"
	"go.trai.ch/synthcache/internal/adapters/telemetry"
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/synthcache/internal/core/ports/mocks"
	"go.trai.ch/synthcache/internal/engine/driver"
)

const leafFixture = `
modules:
  - name: leaf
    ports:
      - {name: a, direction: input, width: 1}
`

const leafFixtureModified = `
modules:
  - name: leaf
    ports:
      - {name: a, direction: input, width: 2}
`

const designFixture = `
modules:
  - name: leaf
    ports:
      - {name: a, direction: input, width: 1}
  - name: mid
    wires:
      - {name: w1, width: 1}
    cells:
      - {name: u_leaf, type: leaf, connections: {a: w1}}
  - name: top
    cells:
      - {name: u_mid, type: mid, connections: {}}
`

// mockRenderer wraps a generated mocks.MockRenderer as a spy that
// records every OnRunComplete call; the driver never calls
// OnModuleStart/OnModuleResult directly, those are reported via a
// telemetry.Bridge attached to a real span processor, out of scope for
// these tests which use a NoOpTracer.
type mockRenderer struct {
	*mocks.MockRenderer

	mu    sync.Mutex
	stats []ports.RunStats
}

func newMockRenderer(ctrl *gomock.Controller) *mockRenderer {
	m := &mockRenderer{MockRenderer: mocks.NewMockRenderer(ctrl)}
	m.EXPECT().Start().Return(nil).AnyTimes()
	m.EXPECT().Stop().Return(nil).AnyTimes()
	m.EXPECT().OnModuleStart(gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().OnModuleResult(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().OnRunComplete(gomock.Any()).DoAndReturn(func(stats ports.RunStats) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.stats = append(m.stats, stats)
	}).AnyTimes()
	return m
}

func (m *mockRenderer) last(t *testing.T) ports.RunStats {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.stats)
	return m.stats[len(m.stats)-1]
}

func newDriver(t *testing.T, cacheDir string) (*driver.Driver, *mockRenderer) {
	t.Helper()
	codec := synthstub.NewJSONCodec()
	store, err := cache.NewStore(cacheDir, codec, codec, nil, 64)
	require.NoError(t, err)

	renderer := newMockRenderer(gomock.NewController(t))
	d := driver.New(synthstub.NewEngine(), store, telemetry.NewNoOpTracer(), renderer, nil)
	return d, renderer
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDriver_FirstRunSynthesizesEverything(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	d, renderer := newDriver(t, filepath.Join(dir, "cache"))

	stats, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)
	require.Equal(t, 3, stats.ModulesTotal)
	require.Equal(t, 0, stats.ModulesCached)
	require.Equal(t, 3, stats.ModulesBuilt)
	require.Equal(t, stats, renderer.last(t))
}

func TestDriver_SecondRunRestoresUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	stats, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)
	require.Equal(t, 3, stats.ModulesCached)
	require.Equal(t, 0, stats.ModulesBuilt)
}

func TestDriver_ModifiedLeafOnlyInvalidatesLeafWithoutConservative(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	cacheDir := filepath.Join(dir, "cache")
	d, _ := newDriver(t, cacheDir)

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	modified := `
modules:
  - name: leaf
    ports:
      - {name: a, direction: input, width: 9}
  - name: mid
    wires:
      - {name: w1, width: 1}
    cells:
      - {name: u_leaf, type: leaf, connections: {a: w1}}
  - name: top
    cells:
      - {name: u_mid, type: mid, connections: {}}
`
	writeFixture(t, dir, "design.yaml", modified)

	stats, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)
	require.Equal(t, 1, stats.ModulesBuilt)
	require.Equal(t, []string{"leaf"}, stats.ModulesAffected)
	require.Equal(t, 2, stats.ModulesCached)
}

func TestDriver_ConservativeWideningPullsInDependents(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	cacheDir := filepath.Join(dir, "cache")
	d, _ := newDriver(t, cacheDir)

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	modified := `
modules:
  - name: leaf
    ports:
      - {name: a, direction: input, width: 9}
  - name: mid
    wires:
      - {name: w1, width: 1}
    cells:
      - {name: u_leaf, type: leaf, connections: {a: w1}}
  - name: top
    cells:
      - {name: u_mid, type: mid, connections: {}}
`
	writeFixture(t, dir, "design.yaml", modified)

	stats, err := d.Run(context.Background(), driver.RunOptions{
		Sources:      []string{src},
		Conservative: true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, stats.ModulesBuilt)
	require.ElementsMatch(t, []string{"leaf", "mid", "top"}, stats.ModulesAffected)
}

func TestDriver_ForceFullIgnoresCache(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	stats, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}, ForceFull: true})
	require.NoError(t, err)
	require.Equal(t, 3, stats.ModulesBuilt)
	require.Equal(t, 0, stats.ModulesCached)
}

func TestDriver_NoCacheSkipsStore(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", leafFixture)
	cacheDir := filepath.Join(dir, "cache")
	d, _ := newDriver(t, cacheDir)

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}, NoCache: true})
	require.NoError(t, err)

	codec := synthstub.NewJSONCodec()
	store, err := cache.NewStore(cacheDir, codec, codec, nil, 64)
	require.NoError(t, err)
	require.NoError(t, store.Init())
	require.Equal(t, 0, store.EntryCount())
}

func TestDriver_SkipElaborationReusesDesign(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", leafFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	stats, err := d.Run(context.Background(), driver.RunOptions{SkipElaboration: true})
	require.NoError(t, err)
	require.Equal(t, 1, stats.ModulesTotal)
	require.Equal(t, 1, stats.ModulesCached)
}

func TestDriver_SkipElaborationWithoutPriorDesignErrors(t *testing.T) {
	d, _ := newDriver(t, t.TempDir())
	_, err := d.Run(context.Background(), driver.RunOptions{SkipElaboration: true})
	require.Error(t, err)
}

func TestDriver_ElaborationFailureIsFatal(t *testing.T) {
	d, _ := newDriver(t, t.TempDir())
	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{"/nonexistent/design.yaml"}})
	require.Error(t, err)
}

func TestDriver_GraphAndDesignReflectLastRun(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"leaf", "mid", "top"}, d.Graph().Modules())
	require.Len(t, d.Design(), 3)
	require.ElementsMatch(t, []string{"mid"}, d.Graph().DirectDependents("leaf"))
}

func TestDriver_LoadPersistedGraphRestoresAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", designFixture)
	cacheDir := filepath.Join(dir, "cache")
	d1, _ := newDriver(t, cacheDir)

	_, err := d1.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	d2, _ := newDriver(t, cacheDir)
	require.False(t, d2.HasDesign())
	require.Empty(t, d2.Graph().Modules())

	require.NoError(t, d2.LoadPersistedGraph())
	require.ElementsMatch(t, []string{"leaf", "mid", "top"}, d2.Graph().Modules())
	require.ElementsMatch(t, []string{"mid"}, d2.Graph().DirectDependents("leaf"))

	require.NoError(t, d2.AttachMonitor())
	require.True(t, d2.MonitorAttached())
}

func TestDriver_LoadPersistedGraphErrorsWhenNothingWasEverPersisted(t *testing.T) {
	d, _ := newDriver(t, t.TempDir())
	err := d.LoadPersistedGraph()
	require.ErrorIs(t, err, domain.ErrGraphNotPersisted)
}
