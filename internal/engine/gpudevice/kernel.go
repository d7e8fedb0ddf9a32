//go:build opencl
// +build opencl

package gpudevice

import (
	_ "embed"
	"strings"
)

//go:embed kernels/render.cl
var kernelSource string

// KernelName is the entry point the host looks up after building the
// program.
const KernelName = "render"

// LoadKernel returns the OpenCL C source for the onion key-search
// kernel, after applying compatibility fixes for AMD/Intel OpenCL
// implementations that reject address-space qualifiers NVIDIA's
// compiler accepts.
func LoadKernel() string {
	return applyCompatFixes(kernelSource)
}

// applyCompatFixes strips the __generic qualifier (NVIDIA-only) from the
// kernel source. Nothing else is rewritten: the kernel declares its
// field-element parameters with the fe[10] array typedef and passes the
// __constant tables (fe_zero, fe_one, fe_2d, the base point) to them
// unchanged.
func applyCompatFixes(src string) string {
	src = strings.ReplaceAll(src, "#define __generic\r\n", "")
	src = strings.ReplaceAll(src, "#define __generic\n", "")
	src = strings.ReplaceAll(src, "__generic ", "")
	src = strings.ReplaceAll(src, " __generic", "")
	return src
}
