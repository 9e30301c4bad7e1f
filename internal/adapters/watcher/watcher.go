// Package watcher implements a polling file watcher: each iteration
// stats the configured files, compares their mtimes to the previous
// poll, and delivers a debounced batch of changes. This is a deliberate
// departure from a push-based filesystem notification library: the
// reload cycle always re-reads every watched file on any change, so
// there is no per-event granularity to gain, and polling lets the
// debounce window and consecutive-error counter behave exactly as
// specified regardless of the underlying filesystem.
package watcher

import (
	"context"
	"iter"
	"maps"
	"os"
	"sync"
	"time"

	"go.trai.ch/synthcache/internal/core/ports"
)

var _ ports.Watcher = (*Poller)(nil)

// DefaultDebounceWindow is the quiet period the poller waits, after
// first observing a change, before re-checking mtimes and delivering a
// batch. It gives a burst of near-simultaneous writes (e.g. an editor's
// save-then-format) a chance to settle into one reload instead of many.
const DefaultDebounceWindow = 100 * time.Millisecond

// MaxConsecutiveErrors is the number of consecutive stat failures the
// poller tolerates before the error counter resets itself; the poller
// never aborts on stat errors, it only surfaces them via log warnings at
// this cadence.
const MaxConsecutiveErrors = 5

// Poller implements ports.Watcher by stat-polling a fixed file list.
type Poller struct {
	mu     sync.Mutex
	stop   chan struct{}
	events chan []ports.WatchEvent
	logger ports.Logger
}

// NewPoller creates a Poller. logger may be nil.
func NewPoller(logger ports.Logger) *Poller {
	return &Poller{
		events: make(chan []ports.WatchEvent, 1),
		logger: logger,
	}
}

// Start polls files every interval milliseconds until ctx is canceled or
// Stop is called. The first poll establishes the mtime baseline and does
// not deliver an event batch.
func (p *Poller) Start(ctx context.Context, files []string, interval int) error {
	p.mu.Lock()
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()
	defer close(p.events)

	mtimes := make(map[string]int64, len(files))
	for _, f := range files {
		if mt, err := statMTime(f); err == nil {
			mtimes[f] = mt
		}
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	consecutiveErrors := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		case <-ticker.C:
			pending := maps.Clone(mtimes)
			changed, errCount := p.pollOnce(files, pending)
			if errCount > 0 {
				consecutiveErrors += errCount
				if consecutiveErrors >= MaxConsecutiveErrors {
					if p.logger != nil {
						p.logger.Warn("watch: repeated stat failures, continuing to poll")
					}
					consecutiveErrors = 0
				}
			} else {
				consecutiveErrors = 0
			}
			if len(changed) == 0 {
				continue
			}

			time.Sleep(DefaultDebounceWindow)
			settled, _ := p.pollOnce(files, maps.Clone(pending))
			if len(settled) > 0 {
				// a watched file's mtime moved again during the debounce
				// window: the writer is still active, skip this iteration
				// and poll again rather than reload a half-written file.
				// mtimes is left untouched, so the next poll reports this
				// iteration's changes again.
				continue
			}
			maps.Copy(mtimes, pending)
			batch := changed

			select {
			case p.events <- batch:
			case <-ctx.Done():
				return nil
			case <-stop:
				return nil
			}
		}
	}
}

// pollOnce stats every file, updates mtimes in place, and returns the
// batch of files whose mtime differs from the one recorded in mtimes
// (or has none recorded), along with the number of stat failures
// observed.
func (p *Poller) pollOnce(files []string, mtimes map[string]int64) ([]ports.WatchEvent, int) {
	var changed []ports.WatchEvent
	errCount := 0
	for _, f := range files {
		mt, err := statMTime(f)
		if err != nil {
			errCount++
			continue
		}
		if prev, ok := mtimes[f]; !ok || mt != prev {
			mtimes[f] = mt
			changed = append(changed, ports.WatchEvent{Path: f, ModTime: mt})
		}
	}
	return changed, errCount
}

// Stop requests a graceful shutdown of a running Start call.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

// Events returns an iterator over debounced change batches.
func (p *Poller) Events() iter.Seq[[]ports.WatchEvent] {
	return func(yield func([]ports.WatchEvent) bool) {
		for batch := range p.events {
			if !yield(batch) {
				return
			}
		}
	}
}

func statMTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}
