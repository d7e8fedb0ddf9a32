// Package engine coordinates one search run: it owns the target set, the
// progress/result sinks, and the CPU and (optionally) GPU strategies that
// race against that set until it is empty or the caller cancels.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/vanitytor/vanityengine/pkg/vanity"
	"github.com/vanitytor/vanityengine/pkg/vanity/targetset"
)

// ProgressSink receives a throughput sample roughly once a second.
type ProgressSink func(vanity.Progress)

// ResultSink receives one FoundKey per claimed pattern, as soon as its key
// file has been written to disk.
type ResultSink func(vanity.FoundKey)

// state is the run-scoped context every strategy works against: the
// shared target set, the output directory, the sinks, and the atomic
// counters a strategy updates as it goes.
type state struct {
	targets   *targetset.Set
	outDir    string
	progress  ProgressSink
	result    ResultSink
	examined  uint64 // atomic, examined candidates across all strategies
	startTime time.Time
}

func (s *state) addExamined(n uint64) {
	atomic.AddUint64(&s.examined, n)
}

func (s *state) emit(p vanity.Pattern, address string, path string) {
	if s.result != nil {
		s.result(vanity.FoundKey{Pattern: p, Address: address, OnDiskPath: path})
	}
}

// strategy is the contract a computation backend implements. Run blocks
// until ctx is cancelled or st.targets.IsEmpty(), except that the GPU
// strategy also returns once no outstanding pattern is a prefix pattern
// (the only kind its kernel tests); it must be safe to run
// concurrently with another strategy sharing the same state (Hybrid mode
// runs a cpuStrategy and a gpuStrategy against one state).
type strategy interface {
	name() string
	run(ctx context.Context, st *state) error
}

// Engine is the facade a front end drives: Probe to discover backends,
// Select to pick one, Run to execute a search.
type Engine struct {
	selected strategy
	mode     vanity.Mode
}

// New returns an Engine with no backend selected; call Select before Run.
func New() *Engine {
	return &Engine{}
}

// Probe reports the backends available on this host: CPU first, then,
// if a GPU device opens, that GPU and Hybrid.
func (e *Engine) Probe() []vanity.BackendDescriptor {
	descriptors := []vanity.BackendDescriptor{
		{Name: "cpu", EstimatedThroughputPerSecond: cpuEstimatedThroughput()},
	}
	if gpuDesc, ok := probeGPU(); ok {
		descriptors = append(descriptors, gpuDesc)
		descriptors = append(descriptors, vanity.BackendDescriptor{
			Name:                         "hybrid",
			EstimatedThroughputPerSecond: cpuEstimatedThroughput() + gpuDesc.EstimatedThroughputPerSecond,
		})
	}
	return descriptors
}

// Select configures the Engine to run in the requested mode. cpuThreads
// of 0 means "use runtime.NumCPU()". Auto selects Hybrid when a GPU
// device opens and CPU otherwise, never erroring.
func (e *Engine) Select(mode vanity.Mode, cpuThreads int) error {
	if cpuThreads <= 0 {
		cpuThreads = runtime.NumCPU()
	}

	gpu, gpuErr := newGPUStrategy()

	switch mode {
	case vanity.CPUOnly:
		e.selected = newCPUStrategy(cpuThreads)
	case vanity.GPUOnly:
		if gpuErr != nil {
			return vanity.NewDeviceUnavailableError(gpuErr)
		}
		e.selected = gpu
	case vanity.Hybrid:
		if gpuErr != nil {
			return vanity.NewDeviceUnavailableError(gpuErr)
		}
		e.selected = newHybridStrategy(newCPUStrategy(cpuThreads), gpu)
	case vanity.Auto:
		if gpuErr == nil {
			e.selected = newHybridStrategy(newCPUStrategy(cpuThreads), gpu)
		} else {
			e.selected = newCPUStrategy(cpuThreads)
		}
	default:
		return fmt.Errorf("engine: unknown mode %v", mode)
	}
	e.mode = mode
	return nil
}

// Run executes the selected strategy against patterns, writing each
// claimed key under its own subdirectory of outDir, until every pattern
// is claimed or ctx is cancelled. progress and result may be nil. It
// returns nil once every pattern is claimed, a Stopped error if ctx was
// cancelled first, and an error if the strategy returned while patterns
// it cannot search for were still outstanding.
func (e *Engine) Run(ctx context.Context, patterns []vanity.Pattern, outDir string, progress ProgressSink, result ResultSink) error {
	if e.selected == nil {
		return fmt.Errorf("engine: no strategy selected, call Select first")
	}
	if len(patterns) == 0 {
		return vanity.NewInvalidPatternError("(empty target set)")
	}

	targets, err := targetset.New(patterns)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0700); err != nil {
		return vanity.NewIoError(err)
	}

	st := &state{
		targets:   targets,
		outDir:    outDir,
		progress:  progress,
		result:    result,
		startTime: time.Now(),
	}

	stopTicker := make(chan struct{})
	reporterDone := make(chan struct{})
	if progress != nil {
		go func() {
			reportProgress(st, stopTicker)
			close(reporterDone)
		}()
	} else {
		close(reporterDone)
	}

	err = e.selected.run(ctx, st)
	close(stopTicker)
	<-reporterDone
	if progress != nil {
		emitProgress(st)
	}

	if err != nil {
		return err
	}
	if targets.IsEmpty() {
		return nil
	}
	if ctx.Err() != nil {
		return vanity.NewStoppedError()
	}
	return fmt.Errorf("engine: %s strategy returned with %d pattern(s) unclaimed", e.selected.name(), targets.Len())
}

func reportProgress(st *state, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			emitProgress(st)
		}
	}
}

// emitProgress sends one throughput sample. Run calls this once more
// after the strategy returns, so a caller always sees a final sample
// reflecting the run's true end state instead of whatever the ticker's
// last tick happened to catch.
func emitProgress(st *state) {
	examined := atomic.LoadUint64(&st.examined)
	elapsed := time.Since(st.startTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(examined) / elapsed
	}
	st.progress(vanity.Progress{
		CandidatesExamined:  examined,
		CandidatesPerSecond: rate,
		ElapsedSeconds:      elapsed,
	})
}

// nameDir returns the hit directory for a matched onion name: the output
// root joined with the name itself (without the ".onion" suffix), per
// the on-disk layout Tor hidden-service directories use.
func nameDir(outDir string, name string) string {
	return filepath.Join(outDir, name)
}
