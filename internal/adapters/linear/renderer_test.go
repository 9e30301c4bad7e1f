package linear_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"go.trai.ch/synthcache/internal/adapters/linear"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
)

func TestRenderer_ModuleLifecycle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	startTime := time.Now()
	r.OnModuleStart("top", startTime)

	if !strings.Contains(stderr.String(), "[top]") {
		t.Errorf("Expected module start message, got: %s", stderr.String())
	}

	endTime := startTime.Add(100 * time.Millisecond)
	r.OnModuleResult("top", false, endTime, nil)

	if !strings.Contains(stdout.String(), "synthesized") {
		t.Errorf("Expected synthesized message, got: %s", stdout.String())
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestRenderer_CacheHit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	startTime := time.Now()
	r.OnModuleStart("alu", startTime)
	r.OnModuleResult("alu", true, startTime.Add(10*time.Millisecond), nil)

	if !strings.Contains(stdout.String(), "cache hit") {
		t.Errorf("Expected cache hit message, got: %s", stdout.String())
	}
}

func TestRenderer_ModuleError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	startTime := time.Now()
	r.OnModuleStart("broken", startTime)

	err := zerr.New("synthesis failed")
	r.OnModuleResult("broken", false, startTime.Add(50*time.Millisecond), err)

	stdoutStr := stdout.String()
	if !strings.Contains(stdoutStr, "failed") {
		t.Errorf("Expected failure message, got: %s", stdoutStr)
	}
	if !strings.Contains(stdoutStr, "synthesis failed") {
		t.Errorf("Expected error message, got: %s", stdoutStr)
	}
}

func TestRenderer_OnRunComplete(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	r.OnRunComplete(ports.RunStats{
		ModulesTotal:    3,
		ModulesCached:   2,
		ModulesBuilt:    1,
		CacheHits:       2,
		CacheMisses:     1,
		Elapsed:         250 * time.Millisecond,
		ModulesAffected: []string{"top", "alu"},
	})

	stderrStr := stderr.String()
	if !strings.Contains(stderrStr, "3 module(s)") {
		t.Errorf("Expected module count, got: %s", stderrStr)
	}
	if !strings.Contains(stderrStr, "affected=2") {
		t.Errorf("Expected affected count, got: %s", stderrStr)
	}
}

func TestRenderer_NoColor(t *testing.T) {
	if err := os.Setenv("NO_COLOR", "1"); err != nil {
		t.Fatalf("Failed to set NO_COLOR: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("NO_COLOR")
	}()

	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	startTime := time.Now()
	r.OnModuleStart("top", startTime)
	r.OnModuleResult("top", false, startTime.Add(50*time.Millisecond), nil)

	if strings.Contains(stderr.String(), "\x1b[") {
		t.Errorf("Expected no ANSI codes with NO_COLOR, got: %s", stderr.String())
	}
}

func TestRenderer_ResultForUnknownModule(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	r.OnModuleResult("never-started", false, time.Now(), nil)

	if !strings.Contains(stdout.String(), "synthesized") {
		t.Errorf("Expected a result line even without a prior start, got: %s", stdout.String())
	}
}

func TestRenderer_NilWriters(_ *testing.T) {
	r := linear.NewRenderer(nil, nil)

	startTime := time.Now()
	r.OnModuleStart("top", startTime)
	r.OnModuleResult("top", false, startTime.Add(time.Second), nil)
}
