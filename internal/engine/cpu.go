package engine

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"runtime"
	"sync"
	"time"

	"github.com/vanitytor/vanityengine/pkg/vanity/keyfile"
	"github.com/vanitytor/vanityengine/pkg/vanity/onion"
)

const cpuReportBatch = 4096

// estimatedKeysPerCore is a rough Ed25519-keygen-plus-SHA3 throughput
// figure for a single CPU core, used only to rank backends in Probe.
const estimatedKeysPerCore = 40_000

func cpuEstimatedThroughput() uint64 {
	return uint64(runtime.NumCPU()) * estimatedKeysPerCore
}

// cpuStrategy runs threads goroutines, each generating CSPRNG Ed25519
// seeds and testing the resulting onion name against the shared target
// set until it is empty or ctx is cancelled.
type cpuStrategy struct {
	threads int
}

func newCPUStrategy(threads int) *cpuStrategy {
	return &cpuStrategy{threads: threads}
}

func (c *cpuStrategy) name() string { return "cpu" }

func (c *cpuStrategy) run(ctx context.Context, st *state) error {
	done := make(chan struct{})
	errCh := make(chan error, c.threads)

	var wg sync.WaitGroup
	for i := 0; i < c.threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cpuWorker(ctx, st, done, errCh)
		}()
	}
	// Runs after done is closed on every return path below, so no worker
	// is still writing key files or emitting results once run returns.
	defer wg.Wait()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(done)
			return nil
		case err := <-errCh:
			close(done)
			return err
		case <-ticker.C:
			if st.targets.IsEmpty() {
				close(done)
				return nil
			}
		}
	}
}

func cpuWorker(ctx context.Context, st *state, done <-chan struct{}, errCh chan<- error) {
	var examinedSinceReport uint64
	seed := make([]byte, ed25519.SeedSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		default:
		}

		if st.targets.IsEmpty() {
			return
		}

		if _, err := rand.Read(seed); err != nil {
			continue
		}
		priv := ed25519.NewKeyFromSeed(seed)
		pub := priv.Public().(ed25519.PublicKey)

		name, err := onion.EncodeName(pub)
		if err != nil {
			continue
		}

		examinedSinceReport++
		if examinedSinceReport >= cpuReportBatch {
			st.addExamined(examinedSinceReport)
			examinedSinceReport = 0
		}

		match, ok := st.targets.ClaimString(name)
		if !ok {
			continue
		}

		dir := nameDir(st.outDir, name)
		address, err := keyfile.Write(dir, seed, pub)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			continue
		}
		st.emit(match.Pattern, address, dir)
	}
}
