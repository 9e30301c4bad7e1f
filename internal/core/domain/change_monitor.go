package domain

// ChangeSet classifies the modules of a design relative to a prior
// baseline into three disjoint sets. A module name appears in at most one
// of Added, Deleted, Modified.
type ChangeSet struct {
	Added    []string
	Deleted  []string
	Modified []string
}

// IsEmpty reports whether the change set contains no changes at all.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Added) == 0 && len(cs.Deleted) == 0 && len(cs.Modified) == 0
}

// Changed returns the union of Added and Modified: the modules whose
// current content the cache must treat as new input, as distinct from
// Deleted modules which simply disappear.
func (cs ChangeSet) Changed() []string {
	out := make([]string, 0, len(cs.Added)+len(cs.Modified))
	out = append(out, cs.Added...)
	out = append(out, cs.Modified...)
	return out
}

// ChangeMonitor tracks a baseline fingerprint per module and classifies
// subsequent snapshots against it. Attach captures the baseline; Detach
// discards it. Diff never mutates the baseline — call Attach again to
// move it forward.
type ChangeMonitor struct {
	fp       *Fingerprinter
	baseline map[string]Fingerprint
	attached bool
}

// NewChangeMonitor creates a ChangeMonitor using fp to compute module
// fingerprints.
func NewChangeMonitor(fp *Fingerprinter) *ChangeMonitor {
	return &ChangeMonitor{fp: fp}
}

// Attach captures the fingerprint of every given module as the baseline
// for future Diff calls.
func (cm *ChangeMonitor) Attach(modules []*Module) {
	baseline := make(map[string]Fingerprint, len(modules))
	for _, m := range modules {
		baseline[m.Name.String()] = cm.fp.Fingerprint(m)
	}
	cm.baseline = baseline
	cm.attached = true
}

// AttachFingerprints captures a baseline directly from precomputed
// fingerprints, for a process that restored a prior run's scratchpad
// rather than holding the modules themselves.
func (cm *ChangeMonitor) AttachFingerprints(fingerprints map[string]Fingerprint) {
	baseline := make(map[string]Fingerprint, len(fingerprints))
	for name, fp := range fingerprints {
		baseline[name] = fp
	}
	cm.baseline = baseline
	cm.attached = true
}

// Detach discards the current baseline. It is always safe to call,
// including when no baseline was ever attached.
func (cm *ChangeMonitor) Detach() {
	cm.baseline = nil
	cm.attached = false
}

// Attached reports whether a baseline is currently captured.
func (cm *ChangeMonitor) Attached() bool {
	return cm.attached
}

// Diff classifies the given modules against the captured baseline. A
// module present in both with a differing fingerprint is Modified; present
// only in the new set is Added; present only in the baseline is Deleted.
// Calling Diff with no baseline attached returns every module as Added.
func (cm *ChangeMonitor) Diff(modules []*Module) ChangeSet {
	seen := make(map[string]struct{}, len(modules))
	var cs ChangeSet

	for _, m := range modules {
		name := m.Name.String()
		seen[name] = struct{}{}
		old, existed := cm.baseline[name]
		if !existed {
			cs.Added = append(cs.Added, name)
			continue
		}
		if cm.fp.Fingerprint(m) != old {
			cs.Modified = append(cs.Modified, name)
		}
	}

	for name := range cm.baseline {
		if _, ok := seen[name]; !ok {
			cs.Deleted = append(cs.Deleted, name)
		}
	}

	return cs
}
