// Package linear provides a synchronous, line-buffered renderer for CI environments.
package linear

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/synthcache/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer for CI/non-interactive environments.
// It prints one line per module start and one line per module result,
// in the order events arrive.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu    sync.Mutex
	start map[string]time.Time
}

// NewRenderer creates a new Renderer. A nil stdout/stderr defaults to
// os.Stdout/os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	profile := colorProfile()
	output := termenv.NewOutput(stderr, termenv.WithProfile(profile))

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output,
		start:  make(map[string]time.Time),
	}
}

// colorProfile returns the color profile based on environment.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// Start is a no-op; the linear renderer writes synchronously.
func (r *Renderer) Start() error {
	return nil
}

// Stop is a no-op; there is nothing buffered to flush.
func (r *Renderer) Stop() error {
	return nil
}

// OnModuleStart prints a module start line.
func (r *Renderer) OnModuleStart(module string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.start[module] = startTime
	prefix := r.output.String(fmt.Sprintf("[%s]", module)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s elaborating...\n", prefix)
}

// OnModuleResult prints the result line for one module: cache hit,
// rebuilt, or failed.
func (r *Renderer) OnModuleResult(module string, cached bool, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started, ok := r.start[module]
	var duration time.Duration
	if ok {
		duration = endTime.Sub(started)
		delete(r.start, module)
	}
	prefix := fmt.Sprintf("[%s]", module)

	switch {
	case err != nil:
		symbol := r.output.String("✗").Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stdout, "%s %s failed after %v: %v\n", prefix, symbol, duration, err)
	case cached:
		symbol := r.output.String("=").Foreground(termenv.ANSIYellow).String()
		_, _ = fmt.Fprintf(r.stdout, "%s %s cache hit (%v)\n", prefix, symbol, duration)
	default:
		symbol := r.output.String("✓").Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stdout, "%s %s synthesized (%v)\n", prefix, symbol, duration)
	}
}

// OnRunComplete prints a one-line run summary.
func (r *Renderer) OnRunComplete(stats ports.RunStats) {
	_, _ = fmt.Fprintf(r.stderr,
		"done: %d module(s), %d cached, %d built, %d hit / %d miss, affected=%d, elapsed %v\n",
		stats.ModulesTotal, stats.ModulesCached, stats.ModulesBuilt,
		stats.CacheHits, stats.CacheMisses, len(stats.ModulesAffected), stats.Elapsed)
}
