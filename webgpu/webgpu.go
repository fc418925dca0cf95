// Package webgpu provides the WebGPU SAXPY backend. Importing the package
// registers it with saxpy under the name "webgpu":
//
//	import _ "github.com/LynnColeArt/saxpy/webgpu"
package webgpu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/LynnColeArt/saxpy"
	"github.com/openfluke/webgpu/wgpu"
)

// maxWorkgroupsPerDim is the WebGPU default for
// maxComputeWorkgroupsPerDimension.
const maxWorkgroupsPerDim = 65535

func init() {
	saxpy.Register("webgpu", func(cfg saxpy.Config, logger *slog.Logger) (saxpy.Backend, error) {
		b, err := Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}

// Backend runs SAXPY as a WGSL compute shader on a WebGPU adapter.
type Backend struct {
	cfg    saxpy.Config
	logger *slog.Logger

	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	name     string
	maxBind  uint64
}

// Open acquires an adapter, preferring high performance, and a device.
func Open(cfg saxpy.Config, logger *slog.Logger) (*Backend, error) {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = saxpy.DefaultBlockSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return nil, saxpy.NewDeviceError("webgpu.Open", "failed to create WebGPU instance", nil)
	}

	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || adapter == nil {
		logger.Debug("high performance adapter unavailable, trying default", "err", err)
		adapter, err = inst.RequestAdapter(nil)
	}
	if err != nil || adapter == nil {
		inst.Release()
		if err == nil {
			err = saxpy.ErrNoAdapter
		}
		return nil, &saxpy.SaxpyError{
			Type:    saxpy.ErrTypeDevice,
			Op:      "webgpu.Open",
			Message: "no compute adapter available",
			Err:     err,
		}
	}

	// request the adapter's own limits; the defaults cap a storage
	// binding at 128 MiB
	limits := adapter.GetLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "saxpy",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits.Limits},
	})
	if err != nil || device == nil {
		adapter.Release()
		inst.Release()
		return nil, saxpy.NewDeviceError("webgpu.Open", "request device failed", err)
	}

	info := adapter.GetInfo()
	name := strings.TrimSpace(info.Name)
	logger.Info("using WebGPU adapter", "name", name, "vendor", strings.TrimSpace(info.VendorName),
		"max_storage_binding", limits.Limits.MaxStorageBufferBindingSize)

	return &Backend{
		cfg:      cfg,
		logger:   logger,
		instance: inst,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		name:     name,
		maxBind:  min(limits.Limits.MaxStorageBufferBindingSize, limits.Limits.MaxBufferSize),
	}, nil
}

// Name implements saxpy.Backend.
func (*Backend) Name() string { return "webgpu" }

// AdapterName returns the name reported by the adapter.
func (b *Backend) AdapterName() string { return b.name }

// Dispatch returns the workgroup counts used for n elements. Workgroups
// beyond the per-dimension limit wrap into Y.
func Dispatch(cfg saxpy.Config, n int) (x, y uint32) {
	groups := cfg.GridFor(n)
	if groups == 0 {
		return 0, 0
	}
	gx := min(groups, maxWorkgroupsPerDim)
	gy := (groups + gx - 1) / gx
	return uint32(gx), uint32(gy)
}

// Shader returns the WGSL kernel for n elements dispatched as gx workgroups
// along X.
func Shader(n int, blockSize int, gx uint32) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read>       x : array<f32>;
@group(0) @binding(1) var<storage, read>       y : array<f32>;
@group(0) @binding(2) var<storage, read_write> r : array<f32>;

const N: u32 = %du;
const STRIDE: u32 = %du;
const A: f32 = %v;

@compute @workgroup_size(%d, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.y * STRIDE + gid.x;
    if (i >= N) { return; }
    r[i] = A * x[i] + y[i];
}
`, n, uint32(blockSize)*gx, saxpy.Scale, blockSize)
}

// checkBinding rejects vectors larger than one storage binding. A zero
// limit means the adapter did not report one.
func checkBinding(nbytes, limit uint64) error {
	if limit == 0 || nbytes <= limit {
		return nil
	}
	return saxpy.NewMemoryError("webgpu.Saxpy",
		fmt.Sprintf("vector of %d bytes exceeds the adapter's storage binding limit of %d bytes", nbytes, limit),
		nil)
}

// Saxpy implements saxpy.Backend.
func (b *Backend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if len(x) != len(y) || len(r) != len(x) {
		return saxpy.ErrLengthMismatch
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(r)
	if n == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return saxpy.NewDeviceError("webgpu.Saxpy", "backend closed", nil)
	}

	nbytes := uint64(n * saxpy.ElementSize)
	if err := checkBinding(nbytes, b.maxBind); err != nil {
		return err
	}
	gx, gy := Dispatch(b.cfg, n)
	if covered := int(gx) * int(gy) * b.cfg.BlockSize; covered < n {
		b.logger.Warn("dispatch does not cover the problem; trailing elements are not computed",
			"n", n, "covered", covered)
	}

	xBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "saxpy_x",
		Contents: wgpu.ToBytes(x),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return saxpy.NewMemoryError("webgpu.Saxpy", "allocating x", err)
	}
	defer xBuf.Release()

	yBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "saxpy_y",
		Contents: wgpu.ToBytes(y),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return saxpy.NewMemoryError("webgpu.Saxpy", "allocating y", err)
	}
	defer yBuf.Release()

	rBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "saxpy_r",
		Size:  nbytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return saxpy.NewMemoryError("webgpu.Saxpy", "allocating r", err)
	}
	defer rBuf.Release()

	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "saxpy_staging",
		Size:  nbytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return saxpy.NewMemoryError("webgpu.Saxpy", "allocating staging buffer", err)
	}
	defer staging.Release()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "saxpy_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: Shader(n, b.cfg.BlockSize, gx)},
	})
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "compiling shader", err)
	}
	defer module.Release()

	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "saxpy_pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "creating pipeline", err)
	}
	defer pipeline.Release()

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "saxpy_bind",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: xBuf, Size: xBuf.GetSize()},
			{Binding: 1, Buffer: yBuf, Size: yBuf.GetSize()},
			{Binding: 2, Buffer: rBuf, Size: rBuf.GetSize()},
		},
	})
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "creating bind group", err)
	}
	defer bg.Release()

	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "creating command encoder", err)
	}
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(gx, gy, 1)
	pass.End()
	enc.CopyBufferToBuffer(rBuf, 0, staging, 0, nbytes)

	cb, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "finishing commands", err)
	}
	b.queue.Submit(cb)
	cb.Release()

	return b.readBack(ctx, staging, r, nbytes)
}

func (b *Backend) readBack(ctx context.Context, staging *wgpu.Buffer, r []float32, nbytes uint64) error {
	done := make(chan struct{})
	var mapErr error
	err := staging.MapAsync(wgpu.MapModeRead, 0, nbytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map status: %v", status)
		}
		close(done)
	})
	if err != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "mapping result", err)
	}

Loop:
	for {
		b.device.Poll(true, nil)
		select {
		case <-done:
			break Loop
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	if mapErr != nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "mapping result", mapErr)
	}

	data := staging.GetMappedRange(0, uint(nbytes))
	if data == nil {
		return saxpy.NewExecutionError("webgpu.Saxpy", "empty mapped range", nil)
	}
	copy(r, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return nil
}

// Close releases the device, adapter and instance.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	return nil
}
