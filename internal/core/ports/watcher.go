package ports

import (
	"context"
	"iter"
)

// WatchEvent reports that one watched file's mtime changed since the
// previous poll.
type WatchEvent struct {
	Path    string
	ModTime int64 // Unix nanoseconds
}

// Watcher polls a fixed set of files for mtime changes, rather than
// subscribing to filesystem push notifications: the cache's reload cycle
// always re-reads every watched file on any change, so there is nothing
// to gain from finer-grained event delivery, and a poll loop lets the
// debounce window and consecutive-error counter behave exactly as
// specified regardless of which OS or filesystem is underneath.
type Watcher interface {
	// Start begins polling the given files at interval, blocking until ctx
	// is canceled or Stop is called. Start returns nil on a clean shutdown.
	Start(ctx context.Context, files []string, interval int) error

	// Stop requests a graceful shutdown of a running Start call.
	Stop()

	// Events returns an iterator of debounced change batches. A batch is
	// the set of files whose mtime changed since the previous delivered
	// batch (or since Start, for the first).
	Events() iter.Seq[[]WatchEvent]
}
