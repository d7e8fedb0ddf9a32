package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/vanitytor/vanityengine/pkg/vanity"
)

func TestRunCPUOnlyFindsEmptyPattern(t *testing.T) {
	e := New()
	if err := e.Select(vanity.CPUOnly, 2); err != nil {
		t.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "vanityengine-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	var found []vanity.FoundKey
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// An empty-value pattern matches every candidate, so the first
	// generated key satisfies it immediately.
	err = e.Run(ctx, []vanity.Pattern{{Value: "", Position: vanity.Prefix}}, dir, nil, func(fk vanity.FoundKey) {
		found = append(found, fk)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("got %d found keys, want 1", len(found))
	}
	if _, err := os.Stat(found[0].OnDiskPath); err != nil {
		t.Fatalf("expected key directory to exist: %v", err)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	e := New()
	if err := e.Select(vanity.CPUOnly, 1); err != nil {
		t.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "vanityengine-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A 12-character pattern is effectively unreachable within the test
	// timeout, so a pre-cancelled context must return Stopped promptly.
	err = e.Run(ctx, []vanity.Pattern{{Value: "zzzzzzzzzzzz", Position: vanity.Prefix}}, dir, nil, nil)
	if err == nil {
		t.Fatalf("expected a Stopped error")
	}
	if !isStoppedError(err) {
		t.Fatalf("got %v, want a Stopped error", err)
	}
}

func isStoppedError(err error) bool {
	ve, ok := err.(*vanity.Error)
	return ok && ve.Kind == vanity.Stopped
}

func TestRunRejectsEmptyTargetSet(t *testing.T) {
	e := New()
	if err := e.Select(vanity.CPUOnly, 1); err != nil {
		t.Fatal(err)
	}
	dir, err := os.MkdirTemp("", "vanityengine-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	err = e.Run(context.Background(), nil, dir, nil, nil)
	ve, ok := err.(*vanity.Error)
	if !ok || ve.Kind != vanity.InvalidPattern {
		t.Fatalf("got %v, want an InvalidPattern error", err)
	}
}

func TestRunEmitsAFinalProgressSample(t *testing.T) {
	e := New()
	if err := e.Select(vanity.CPUOnly, 2); err != nil {
		t.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "vanityengine-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	var samples int
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = e.Run(ctx, []vanity.Pattern{{Value: "", Position: vanity.Prefix}}, dir, func(vanity.Progress) {
		samples++
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if samples == 0 {
		t.Fatalf("expected at least one progress sample after Run returns")
	}
}

func TestProbeAlwaysReportsCPU(t *testing.T) {
	e := New()
	backends := e.Probe()
	found := false
	for _, b := range backends {
		if b.Name == "cpu" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Probe to always report a cpu backend, got %v", backends)
	}
}
