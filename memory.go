package saxpy

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of a memory transfer. All grid
// runtime memory is host memory, so the kinds only document intent.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
)

func (k MemcpyKind) String() string {
	switch k {
	case MemcpyHostToHost:
		return "HtoH"
	case MemcpyHostToDevice:
		return "HtoD"
	case MemcpyDeviceToHost:
		return "DtoH"
	case MemcpyDeviceToDevice:
		return "DtoD"
	default:
		return fmt.Sprintf("MemcpyKind(%d)", int(k))
	}
}

// MemoryPool hands out device allocations and keeps freed blocks on a
// free list for reuse. Reused blocks are not cleared.
type MemoryPool struct {
	mu         sync.Mutex
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	buf  []byte
	size int
	used bool
}

func (a *allocation) ptr() unsafe.Pointer {
	return unsafe.Pointer(&a.buf[0])
}

// NewMemoryPool creates an empty memory pool.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
	}
}

// Malloc allocates size bytes of device memory. A zero size returns the
// zero DevicePtr, which Free accepts.
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc. The block is kept in
// the pool for later allocations.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Memcpy copies size bytes from src to dst. Each side may be a DevicePtr,
// a []float32 or a []byte.
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	if size < 0 {
		return NewInvalidArgError("Memcpy", fmt.Sprintf("negative size %d (%s)", size, kind))
	}
	d, err := byteView("dst", dst)
	if err != nil {
		return err
	}
	s, err := byteView("src", src)
	if err != nil {
		return err
	}
	if size > len(d) || size > len(s) {
		return NewInvalidArgError("Memcpy",
			fmt.Sprintf("%s copy of %d bytes exceeds dst %d / src %d", kind, size, len(d), len(s)))
	}
	copy(d[:size], s[:size])
	return nil
}

func byteView(side string, v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case DevicePtr:
		return b.Byte(), nil
	case []byte:
		return b, nil
	case []float32:
		if len(b) == 0 {
			return nil, nil
		}
		return unsafe.Slice((*byte)(unsafe.Pointer(&b[0])), len(b)*ElementSize), nil
	default:
		return nil, NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported %s type: %T", side, v))
	}
}

// Allocate allocates memory from the pool
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size < 0 {
		return DevicePtr{}, ErrInvalidSize
	}
	if size == 0 {
		return DevicePtr{}, nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			mp.track(int64(alloc.size))
			return DevicePtr{ptr: alloc.ptr(), size: size}, nil
		}
	}

	alloc := &allocation{
		buf:  make([]byte, alignedSize),
		size: alignedSize,
		used: true,
	}
	mp.allocated[uintptr(alloc.ptr())] = alloc
	mp.track(int64(alignedSize))

	return DevicePtr{ptr: alloc.ptr(), size: size}, nil
}

func (mp *MemoryPool) track(delta int64) {
	mp.totalAlloc += delta
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok {
		return ErrUnknownPointer
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)
	return nil
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// Float32 returns a float32 view of the device memory.
func (d DevicePtr) Float32() []float32 {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*float32)(d.ptr), d.size/ElementSize)
}

// Byte returns a byte view of the device memory.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(d.ptr), d.size)
}

// Size returns the size in bytes of the memory region
func (d DevicePtr) Size() int {
	return d.size
}

// DeviceBuffer owns one device allocation for the duration of a scope.
// Release is idempotent, so it can be deferred right after allocation and
// still be called early.
type DeviceBuffer struct {
	ctx  *Context
	ptr  DevicePtr
	once sync.Once
	err  error
}

// NewDeviceBuffer allocates n float32 elements of device memory.
func (ctx *Context) NewDeviceBuffer(n int) (*DeviceBuffer, error) {
	ptr, err := ctx.Malloc(n * ElementSize)
	if err != nil {
		return nil, NewMemoryError("NewDeviceBuffer",
			fmt.Sprintf("allocating %d elements", n), err)
	}
	return &DeviceBuffer{ctx: ctx, ptr: ptr}, nil
}

// Ptr returns the underlying device pointer.
func (b *DeviceBuffer) Ptr() DevicePtr {
	return b.ptr
}

// Release frees the allocation. Later calls return the first result.
func (b *DeviceBuffer) Release() error {
	b.once.Do(func() {
		b.err = b.ctx.Free(b.ptr)
	})
	return b.err
}
