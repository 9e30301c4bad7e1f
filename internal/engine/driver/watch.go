package driver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"time"

	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPollInterval is the poll interval, in milliseconds, used when
// WatchOptions.PollIntervalMillis is zero.
const DefaultPollInterval = 500

// maxConsecutiveReloadErrors is the number of consecutive reload
// failures (reading/elaborating the watched files during a reload
// cycle) tolerated before a warning is logged and the counter resets.
// Separate from the poller's own stat-error tolerance: a reload failure
// is a reader error on the watched design, not a filesystem stat error.
const maxConsecutiveReloadErrors = 5

// WatchOptions configures one watch session.
type WatchOptions struct {
	// Files are the source files polled for changes, and re-read in full
	// on every reload.
	Files []string

	// PollIntervalMillis overrides DefaultPollInterval.
	PollIntervalMillis int

	// Report, if non-nil, receives one JSON notification line per
	// successful reload.
	Report io.Writer

	// Run is the template of run options reused on every reload.
	// SkipElaboration is ignored: a reload always re-elaborates.
	Run RunOptions

	// Once runs the initial pass and returns without starting the poll
	// loop, for a one-shot "read, synthesize, exit" invocation.
	Once bool
}

// notificationEvent is the JSON document emitted to Report after a
// successful reload.
type notificationEvent struct {
	Event        string               `json:"event"`
	TimeMillis   int64                `json:"time_ms"`
	ChangedFiles []string             `json:"changed_files"`
	Modules      []notificationModule `json:"modules"`
}

type notificationModule struct {
	Name  string `json:"name"`
	Cells int    `json:"cells"`
	Wires int    `json:"wires"`
}

// Watch polls Files for changes via watcher and reruns the driver on
// every debounced batch, until ctx is canceled. The first invocation
// (before any file changes) runs once immediately so the caller has a
// synthesized design to start from.
func (d *Driver) Watch(ctx context.Context, watcher ports.Watcher, opts WatchOptions) error {
	interval := opts.PollIntervalMillis
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	initialRun := opts.Run
	initialRun.SkipElaboration = false
	if _, err := d.Run(ctx, initialRun); err != nil {
		return err
	}
	if err := d.reportReload(opts.Report, nil); err != nil {
		return err
	}
	if opts.Once {
		return nil
	}

	started := make(chan error, 1)
	go func() { started <- watcher.Start(ctx, opts.Files, interval) }()

	consecutiveReloadErrors := 0
	for batch := range watcher.Events() {
		if ctx.Err() != nil {
			break
		}

		changed := make([]string, len(batch))
		for i, evt := range batch {
			changed[i] = evt.Path
		}

		reload := opts.Run
		reload.SkipElaboration = false
		if _, err := d.Run(ctx, reload); err != nil {
			consecutiveReloadErrors++
			if consecutiveReloadErrors >= maxConsecutiveReloadErrors {
				if d.logger != nil {
					d.logger.Error(zerr.Wrap(err, "reload failed repeatedly, continuing to watch"))
				}
				consecutiveReloadErrors = 0
			}
			continue
		}
		consecutiveReloadErrors = 0

		if err := d.reportReload(opts.Report, changed); err != nil {
			return err
		}
	}

	watcher.Stop()
	return <-started
}

// reportReload emits one notification line to w describing the design
// produced by the most recent run. It is a no-op when w is nil.
func (d *Driver) reportReload(w io.Writer, changed []string) error {
	if w == nil {
		return nil
	}

	modules := make([]notificationModule, 0, len(d.design))
	for _, name := range sortedModuleNames(d.design) {
		m := d.design[name]
		modules = append(modules, notificationModule{
			Name:  name,
			Cells: len(m.Cells),
			Wires: len(m.Wires),
		})
	}

	event := notificationEvent{
		Event:        "synthesis_complete",
		TimeMillis:   time.Now().UnixMilli(),
		ChangedFiles: changed,
		Modules:      modules,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal watch notification")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Join(zerr.New("failed to write watch notification"), err)
	}
	return nil
}

func sortedModuleNames(design map[string]*domain.Module) []string {
	out := make([]string, 0, len(design))
	for name := range design {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
