//go:build opencl
// +build opencl

// Package gpudevice wraps the OpenCL device that runs the onion key-search
// kernel: it owns the platform/context/queue/program lifecycle and the
// per-batch buffer upload/launch/read-back cycle. Every candidate the
// device reports is opaque and unverified — the caller must re-derive the
// Ed25519 key from the returned seed and re-check it before trusting a
// hit (spec.md §4.6a's reconciliation contract).
package gpudevice

/*
#cgo CFLAGS: -I${SRCDIR}/../../../deps/opencl-headers
#cgo windows LDFLAGS: -L${SRCDIR}/../../../deps/lib -lOpenCL
#cgo linux LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif

#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/vanitytor/vanityengine/pkg/vanity/pattern"
)

const localWorkSize = 256

// Device is an open OpenCL context bound to one GPU and the compiled
// onion key-search kernel.
type Device struct {
	platform C.cl_platform_id
	id       C.cl_device_id
	ctx      C.cl_context
	queue    C.cl_command_queue
	program  C.cl_program
	kernel   C.cl_kernel

	bufSeed       C.cl_mem // KernelParams.seed_ptr, 32 bytes
	bufGroupBase  C.cl_mem // batch offset, 4 bytes (uint); not part of KernelParams
	bufPredicates C.cl_mem // KernelParams.predicates_ptr, maxPredicates * predicateStride bytes
	bufPredCount  C.cl_mem // KernelParams.predicates_len, 4 bytes (uint)

	name string
}

// Open enumerates OpenCL platforms, picks the first GPU device, builds
// the key-search kernel, and allocates the fixed-size buffers a batch
// needs.
func Open() (*Device, error) {
	d := &Device{}

	var numPlatforms C.cl_uint
	if C.clGetPlatformIDs(0, nil, &numPlatforms) != C.CL_SUCCESS || numPlatforms == 0 {
		return nil, fmt.Errorf("gpudevice: no OpenCL platforms found")
	}
	platforms := make([]C.cl_platform_id, numPlatforms)
	C.clGetPlatformIDs(numPlatforms, &platforms[0], nil)
	d.platform = platforms[0]

	var numDevices C.cl_uint
	if C.clGetDeviceIDs(d.platform, C.CL_DEVICE_TYPE_GPU, 0, nil, &numDevices) != C.CL_SUCCESS || numDevices == 0 {
		return nil, fmt.Errorf("gpudevice: no GPU devices found")
	}
	devices := make([]C.cl_device_id, numDevices)
	C.clGetDeviceIDs(d.platform, C.CL_DEVICE_TYPE_GPU, numDevices, &devices[0], nil)
	d.id = devices[0]
	d.name = deviceName(d.id)

	var ret C.cl_int
	d.ctx = C.clCreateContext(nil, 1, &d.id, nil, nil, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpudevice: context creation failed: %d", ret)
	}
	d.queue = C.clCreateCommandQueue(d.ctx, d.id, 0, &ret)
	if ret != C.CL_SUCCESS {
		d.Close()
		return nil, fmt.Errorf("gpudevice: command queue creation failed: %d", ret)
	}

	src := LoadKernel()
	csrc := C.CString(src)
	defer C.free(unsafe.Pointer(csrc))
	length := C.size_t(len(src))
	d.program = C.clCreateProgramWithSource(d.ctx, 1, &csrc, &length, &ret)
	if ret != C.CL_SUCCESS {
		d.Close()
		return nil, fmt.Errorf("gpudevice: program creation failed: %d", ret)
	}
	if ret := C.clBuildProgram(d.program, 1, &d.id, nil, nil, nil); ret != C.CL_SUCCESS {
		var logSize C.size_t
		C.clGetProgramBuildInfo(d.program, d.id, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize)
		buildLog := make([]byte, logSize)
		if logSize > 0 {
			C.clGetProgramBuildInfo(d.program, d.id, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&buildLog[0]), nil)
		}
		d.Close()
		return nil, fmt.Errorf("gpudevice: program build failed: %s", string(buildLog))
	}

	// resolve the entry point the kernel module exports.
	kName := C.CString(KernelName)
	defer C.free(unsafe.Pointer(kName))
	d.kernel = C.clCreateKernel(d.program, kName, &ret)
	if ret != C.CL_SUCCESS {
		d.Close()
		return nil, fmt.Errorf("gpudevice: kernel creation failed: %d", ret)
	}

	if err := d.createBuffers(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) createBuffers() error {
	var ret C.cl_int
	alloc := func(size int, flags C.cl_mem_flags) (C.cl_mem, error) {
		buf := C.clCreateBuffer(d.ctx, flags, C.size_t(size), nil, &ret)
		if ret != C.CL_SUCCESS {
			return nil, fmt.Errorf("gpudevice: buffer allocation failed: %d", ret)
		}
		return buf, nil
	}

	var err error
	if d.bufSeed, err = alloc(32, C.CL_MEM_READ_ONLY); err != nil {
		return err
	}
	if d.bufGroupBase, err = alloc(4, C.CL_MEM_READ_ONLY); err != nil {
		return err
	}
	if d.bufPredicates, err = alloc(maxPredicates*predicateStride, C.CL_MEM_READ_WRITE); err != nil {
		return err
	}
	if d.bufPredCount, err = alloc(4, C.CL_MEM_READ_ONLY); err != nil {
		return err
	}

	// KernelParams { seed_ptr, predicates_ptr, predicates_len }, plus
	// the batch-offset argument RunBatch needs to advance the seed
	// across successive launches.
	C.clSetKernelArg(d.kernel, 0, C.size_t(unsafe.Sizeof(d.bufSeed)), unsafe.Pointer(&d.bufSeed))
	C.clSetKernelArg(d.kernel, 1, C.size_t(unsafe.Sizeof(d.bufGroupBase)), unsafe.Pointer(&d.bufGroupBase))
	C.clSetKernelArg(d.kernel, 2, C.size_t(unsafe.Sizeof(d.bufPredicates)), unsafe.Pointer(&d.bufPredicates))
	C.clSetKernelArg(d.kernel, 3, C.size_t(unsafe.Sizeof(d.bufPredCount)), unsafe.Pointer(&d.bufPredCount))
	return nil
}

// Name returns the OpenCL device's reported name.
func (d *Device) Name() string { return d.name }

// RunBatch uploads baseSeed, groupBase, and predicates (each predicate's
// out/success slot cleared first), launches one kernel covering
// BatchSize candidates, and reads back every predicate slot. Each
// reported Hit is a candidate to re-verify host-side, not a trusted
// match.
func (d *Device) RunBatch(baseSeed [32]byte, groupBase uint32, predicates []pattern.BytePredicate) (BatchResult, error) {
	if len(predicates) > maxPredicates {
		predicates = predicates[:maxPredicates]
	}

	check := func(ret C.cl_int, what string) error {
		if ret != C.CL_SUCCESS {
			return fmt.Errorf("gpudevice: %s failed: %d", what, ret)
		}
		return nil
	}

	if err := check(C.clEnqueueWriteBuffer(d.queue, d.bufSeed, C.CL_TRUE, 0, 32,
		unsafe.Pointer(&baseSeed[0]), 0, nil, nil), "write seed"); err != nil {
		return BatchResult{}, err
	}
	if err := check(C.clEnqueueWriteBuffer(d.queue, d.bufGroupBase, C.CL_TRUE, 0, 4,
		unsafe.Pointer(&groupBase), 0, nil, nil), "write group base"); err != nil {
		return BatchResult{}, err
	}

	predBuf := make([]byte, maxPredicates*predicateStride)
	for i, p := range predicates {
		off := i * predicateStride
		predBuf[off+predByteLenOff] = byte(p.LastByteIndex + 1)
		predBuf[off+predLastIdxOff] = byte(p.LastByteIndex)
		predBuf[off+predLastMaskOff] = p.LastByteMask
		copy(predBuf[off+predBytesOff:off+predBytesOff+32], p.Bytes)
		// Bytes does not always cover index LastByteIndex (the partial
		// last byte is masked, not stored there); set it explicitly.
		predBuf[off+predBytesOff+p.LastByteIndex] = p.LastByteValue()
		// out and success start zeroed; the device fills them in.
	}
	if err := check(C.clEnqueueWriteBuffer(d.queue, d.bufPredicates, C.CL_TRUE, 0,
		C.size_t(len(predBuf)), unsafe.Pointer(&predBuf[0]), 0, nil, nil), "write predicates"); err != nil {
		return BatchResult{}, err
	}
	predCount := uint32(len(predicates))
	if err := check(C.clEnqueueWriteBuffer(d.queue, d.bufPredCount, C.CL_TRUE, 0, 4,
		unsafe.Pointer(&predCount), 0, nil, nil), "write predicate count"); err != nil {
		return BatchResult{}, err
	}

	global := C.size_t(BatchSize)
	local := C.size_t(localWorkSize)
	if err := check(C.clEnqueueNDRangeKernel(d.queue, d.kernel, 1, nil, &global, &local, 0, nil, nil),
		"kernel launch"); err != nil {
		return BatchResult{}, err
	}

	out := make([]byte, len(predBuf))
	if err := check(C.clEnqueueReadBuffer(d.queue, d.bufPredicates, C.CL_TRUE, 0,
		C.size_t(len(out)), unsafe.Pointer(&out[0]), 0, nil, nil), "read predicates"); err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for i := range predicates {
		off := i * predicateStride
		if out[off+predSuccessOff] == 0 {
			continue
		}
		var hit Hit
		hit.PredicateIndex = i
		copy(hit.Seed[:], out[off+predOutOff:off+predOutOff+32])
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// Close releases every OpenCL object this Device holds. Safe to call on
// a partially-initialized Device.
func (d *Device) Close() {
	if d.bufSeed != nil {
		C.clReleaseMemObject(d.bufSeed)
	}
	if d.bufGroupBase != nil {
		C.clReleaseMemObject(d.bufGroupBase)
	}
	if d.bufPredicates != nil {
		C.clReleaseMemObject(d.bufPredicates)
	}
	if d.bufPredCount != nil {
		C.clReleaseMemObject(d.bufPredCount)
	}
	if d.kernel != nil {
		C.clReleaseKernel(d.kernel)
	}
	if d.program != nil {
		C.clReleaseProgram(d.program)
	}
	if d.queue != nil {
		C.clReleaseCommandQueue(d.queue)
	}
	if d.ctx != nil {
		C.clReleaseContext(d.ctx)
	}
}

func deviceName(id C.cl_device_id) string {
	var size C.size_t
	C.clGetDeviceInfo(id, C.CL_DEVICE_NAME, 0, nil, &size)
	if size == 0 {
		return "unknown GPU"
	}
	buf := make([]byte, size)
	C.clGetDeviceInfo(id, C.CL_DEVICE_NAME, size, unsafe.Pointer(&buf[0]), nil)
	return string(buf[:size-1])
}
