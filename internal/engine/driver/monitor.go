package driver

import (
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// AttachMonitor captures the current design as the change monitor's
// baseline. When this process has no design of its own (a fresh
// monitor-attach invocation against an existing cache), it falls back
// to the fingerprints restored by LoadPersistedGraph.
func (d *Driver) AttachMonitor() error {
	if d.design != nil {
		d.monitor.Attach(designSlice(d.design))
		return nil
	}
	if d.persistedFingerprints != nil {
		d.monitor.AttachFingerprints(d.persistedFingerprints)
		return nil
	}
	return zerr.New("no design loaded; run before attaching the change monitor")
}

// DetachMonitor discards the change monitor's baseline.
func (d *Driver) DetachMonitor() {
	d.monitor.Detach()
}

// MonitorAttached reports whether the change monitor currently holds a
// baseline.
func (d *Driver) MonitorAttached() bool {
	return d.monitor.Attached()
}

// DiffMonitor classifies the current design against the change
// monitor's baseline.
func (d *Driver) DiffMonitor() (domain.ChangeSet, error) {
	if d.design == nil {
		return domain.ChangeSet{}, zerr.New("no design loaded; run before diffing the change monitor")
	}
	return d.monitor.Diff(designSlice(d.design)), nil
}

// ResetMonitor re-attaches the baseline to the current design,
// equivalent to detach followed by attach.
func (d *Driver) ResetMonitor() error {
	d.DetachMonitor()
	return d.AttachMonitor()
}

func designSlice(design map[string]*domain.Module) []*domain.Module {
	out := make([]*domain.Module, 0, len(design))
	for _, m := range design {
		out = append(out, m)
	}
	return out
}
