package saxpy

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device describes the compute device behind a Context. For the grid
// runtime this is the host CPU and its cores.
type Device struct {
	ID         int    // Unique device identifier
	Name       string // Human-readable device name
	NumCores   int    // Number of CPU cores
	MaxThreads int    // Maximum concurrent block workers
}

// Context is an execution context for the grid runtime. It owns a memory
// pool and a set of streams. A Context must be destroyed when no longer
// needed; Destroy stops its stream workers.
//
//	ctx := saxpy.NewContext()
//	defer ctx.Destroy()
//
//	dx, _ := ctx.Malloc(n * saxpy.ElementSize)
//	defer ctx.Free(dx)
//	ctx.Memcpy(dx, hx, n*saxpy.ElementSize, saxpy.MemcpyHostToDevice)
//
//	grid := saxpy.Dim3{X: (n + 255) / 256, Y: 1, Z: 1}
//	block := saxpy.Dim3{X: 256, Y: 1, Z: 1}
//	ctx.LaunchFunc(kernel, grid, block)
//	ctx.Synchronize()
type Context struct {
	device        *Device
	memory        *MemoryPool
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	defaultStream *Stream
	destroyed     bool
	launchErr     error
}

// Stream is an ordered sequence of operations. Tasks submitted to one
// stream run one after another on the stream's worker goroutine.
type Stream struct {
	id    int
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
}

// Dim3 represents 3D dimensions for grid and block configurations.
type Dim3 struct {
	X, Y, Z int
}

// ThreadID identifies a thread's position within a launch, with the same
// meaning as CUDA's blockIdx, threadIdx, blockDim and gridDim.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Kernel is a compute kernel executed once per thread of a launch.
// Execute is called concurrently from multiple goroutines.
type Kernel interface {
	Execute(tid ThreadID, args ...interface{})
}

// KernelFunc adapts a function to the Kernel interface.
type KernelFunc func(tid ThreadID, args ...interface{})

// Execute calls fn.
func (fn KernelFunc) Execute(tid ThreadID, args ...interface{}) {
	fn(tid, args...)
}

// DevicePtr is a handle to device memory returned by Malloc. The zero
// value is a valid empty pointer.
type DevicePtr struct {
	ptr  unsafe.Pointer
	size int
}

// NewContext creates a context on the host CPU device with one default
// stream.
func NewContext() *Context {
	ctx := &Context{
		device: &Device{
			ID:         0,
			Name:       "CPU",
			NumCores:   runtime.NumCPU(),
			MaxThreads: runtime.NumCPU(),
		},
		streams: make(map[int]*Stream),
		memory:  NewMemoryPool(),
	}
	ctx.defaultStream = ctx.CreateStream()
	return ctx
}

// Device returns the device the context executes on.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// MemoryStats returns the bytes currently allocated and the peak.
func (ctx *Context) MemoryStats() (allocated, peak int64) {
	return ctx.memory.GetStats()
}

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := &Stream{
		id:    id,
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go stream.worker()

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// Launch executes a kernel on the default stream
func (ctx *Context) Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return ctx.launchInternal(kernel.Execute, grid, block, ctx.defaultStream, args...)
}

// LaunchFunc executes a kernel function on the default stream
func (ctx *Context) LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.launchInternal(fn, grid, block, ctx.defaultStream, args...)
}

// LaunchStream executes a kernel on a specific stream
func (ctx *Context) LaunchStream(kernel Kernel, grid, block Dim3, stream *Stream, args ...interface{}) error {
	return ctx.launchInternal(kernel.Execute, grid, block, stream, args...)
}

// Synchronize waits for all streams to complete. It returns the first
// kernel failure recorded since the previous Synchronize.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	for _, s := range streams {
		s.Synchronize()
	}

	ctx.mu.Lock()
	err := ctx.launchErr
	ctx.launchErr = nil
	ctx.mu.Unlock()
	return err
}

func (ctx *Context) recordLaunchError(err error) {
	ctx.mu.Lock()
	if ctx.launchErr == nil {
		ctx.launchErr = err
	}
	ctx.mu.Unlock()
}

// Destroy waits for outstanding work and stops all stream workers.
// Calling Destroy more than once is a no-op.
func (ctx *Context) Destroy() {
	ctx.mu.Lock()
	if ctx.destroyed {
		ctx.mu.Unlock()
		return
	}
	ctx.destroyed = true
	streams := ctx.streams
	ctx.streams = make(map[int]*Stream)
	ctx.mu.Unlock()

	for _, s := range streams {
		s.Synchronize()
		close(s.tasks)
		<-s.done
	}
}

func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Synchronize waits for all tasks in the stream to complete
func (s *Stream) Synchronize() {
	s.wg.Wait()
}

// Submit adds a task to the stream
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}

// Global returns the global thread index along X
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// normalize treats zero Y and Z as 1 so Dim3{X: n} is a 1D shape.
func (d Dim3) normalize() Dim3 {
	if d.Y == 0 {
		d.Y = 1
	}
	if d.Z == 0 {
		d.Z = 1
	}
	return d
}
