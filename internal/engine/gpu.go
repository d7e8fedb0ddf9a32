package engine

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/vanitytor/vanityengine/internal/engine/gpudevice"
	"github.com/vanitytor/vanityengine/pkg/vanity"
	"github.com/vanitytor/vanityengine/pkg/vanity/keyfile"
	"github.com/vanitytor/vanityengine/pkg/vanity/onion"
)

// estimatedKeysPerDevice is a rough OpenCL-device throughput figure used
// only to rank backends in Probe.
const estimatedKeysPerDevice = 4_000_000

// gpuStrategy drives one gpudevice.Device: upload the current set of
// outstanding prefix predicates, launch a batch, and host-verify any
// device-reported candidate before claiming it.
type gpuStrategy struct {
	device *gpudevice.Device
}

func newGPUStrategy() (*gpuStrategy, error) {
	device, err := gpudevice.Open()
	if err != nil {
		return nil, err
	}
	return &gpuStrategy{device: device}, nil
}

// probeGPU reports whether a GPU strategy can be constructed, without
// keeping the device open.
func probeGPU() (vanity.BackendDescriptor, bool) {
	device, err := gpudevice.Open()
	if err != nil {
		return vanity.BackendDescriptor{}, false
	}
	name := device.Name()
	device.Close()
	return vanity.BackendDescriptor{Name: "gpu (" + name + ")", EstimatedThroughputPerSecond: estimatedKeysPerDevice}, true
}

func (g *gpuStrategy) name() string { return "gpu" }

func (g *gpuStrategy) run(ctx context.Context, st *state) error {
	defer g.device.Close()

	var groupBase uint32
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if st.targets.IsEmpty() {
			return nil
		}

		predicates := st.targets.Snapshot()
		if len(predicates) == 0 {
			// Every outstanding pattern is Suffix/Anywhere, which this
			// kernel cannot test; nothing left for the GPU to do.
			return nil
		}

		var baseSeed [32]byte
		if _, err := rand.Read(baseSeed[:]); err != nil {
			return vanity.NewDeviceRuntimeError(err)
		}

		result, err := g.device.RunBatch(baseSeed, groupBase, predicates)
		if err != nil {
			return vanity.NewDeviceRuntimeError(err)
		}
		st.addExamined(gpudevice.BatchSize)
		groupBase += gpudevice.BatchSize

		// Reconciliation: never trust the device. Each predicate reports
		// its own hit independently, so one batch can surface several
		// candidates; re-derive and re-check every one before claiming.
		for _, hit := range result.Hits {
			priv := ed25519.NewKeyFromSeed(hit.Seed[:])
			pub := priv.Public().(ed25519.PublicKey)
			name, err := onion.EncodeName(pub)
			if err != nil {
				continue
			}
			match, ok := st.targets.ClaimString(name)
			if !ok {
				// False positive from the kernel, or a concurrent CPU
				// worker already claimed the same pattern first.
				log.Printf("gpu: device-reported candidate %s did not claim any pattern", name)
				continue
			}

			if err := keyfile.Verify(hit.Seed[:], pub); err != nil {
				log.Printf("gpu: device-reported candidate %s failed key verification: %v", name, err)
				continue
			}

			dir := nameDir(st.outDir, name)
			address, err := keyfile.Write(dir, hit.Seed[:], pub)
			if err != nil {
				return fmt.Errorf("gpu strategy: %w", err)
			}
			st.emit(match.Pattern, address, dir)
		}
	}
}
