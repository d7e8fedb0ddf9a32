//go:build !opencl
// +build !opencl

package gpudevice

// KernelName mirrors the opencl build's constant.
const KernelName = "render"

// LoadKernel returns an empty string; the stub build never builds an
// OpenCL program.
func LoadKernel() string { return "" }
