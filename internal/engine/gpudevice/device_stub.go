//go:build !opencl
// +build !opencl

package gpudevice

import (
	"fmt"

	"github.com/vanitytor/vanityengine/pkg/vanity/pattern"
)

// Device is a stub for builds without the opencl tag.
type Device struct{}

// Open always fails: GPU support requires building with -tags opencl.
func Open() (*Device, error) {
	return nil, fmt.Errorf("gpudevice: GPU support not compiled, build with -tags opencl")
}

func (d *Device) Name() string { return "GPU (disabled)" }

func (d *Device) RunBatch(baseSeed [32]byte, groupBase uint32, predicates []pattern.BytePredicate) (BatchResult, error) {
	return BatchResult{}, fmt.Errorf("gpudevice: GPU support not compiled")
}

func (d *Device) Close() {}
