package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/synthcache/internal/engine/driver"
)

func TestDriver_MonitorAttachDiffReset(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "design.yaml", leafFixture)
	d, _ := newDriver(t, filepath.Join(dir, "cache"))

	require.Error(t, d.AttachMonitor())

	_, err := d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	require.NoError(t, d.AttachMonitor())
	require.True(t, d.MonitorAttached())

	diff, err := d.DiffMonitor()
	require.NoError(t, err)
	require.True(t, diff.IsEmpty())

	require.NoError(t, os.WriteFile(src, []byte(leafFixtureModified), 0o644))
	_, err = d.Run(context.Background(), driver.RunOptions{Sources: []string{src}})
	require.NoError(t, err)

	diff, err = d.DiffMonitor()
	require.NoError(t, err)
	require.Equal(t, []string{"leaf"}, diff.Modified)

	d.DetachMonitor()
	require.False(t, d.MonitorAttached())
}
