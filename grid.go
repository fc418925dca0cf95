package saxpy

import (
	"context"
	"log/slog"
	"sync"
)

// GridBackend runs the kernel through the CUDA-shaped device runtime:
// inputs are staged into device buffers, one thread per element is
// launched over a grid of blocks, and the result is copied back. Calls are
// serialized on the backend's context.
type GridBackend struct {
	cfg    Config
	ctx    *Context
	logger *slog.Logger
	mu     sync.Mutex
}

// NewGridBackend creates a grid backend with its own device context.
func NewGridBackend(cfg Config, logger *slog.Logger) *GridBackend {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx := NewContext()
	dev := ctx.Device()
	logger.Debug("grid device", "name", dev.Name, "cores", dev.NumCores,
		"block", cfg.BlockSize, "fixed_grid", cfg.FixedGrid)
	return &GridBackend{cfg: cfg, ctx: ctx, logger: logger}
}

// saxpyKernel computes one element per thread; threads past n return.
type saxpyKernel struct {
	n       int
	r, x, y []float32
}

// Execute implements Kernel.
func (k saxpyKernel) Execute(tid ThreadID, _ ...interface{}) {
	if i := tid.Global(); i < k.n {
		k.r[i] = Saxpy(k.x[i], k.y[i])
	}
}

// Name implements Backend.
func (*GridBackend) Name() string { return "grid" }

// Context exposes the device context, mainly for memory statistics.
func (g *GridBackend) Context() *Context { return g.ctx }

// Saxpy implements Backend.
func (g *GridBackend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if err := checkLengths("grid.Saxpy", r, x, y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(r)
	if n == 0 {
		return nil
	}
	nbytes := n * ElementSize

	g.mu.Lock()
	defer g.mu.Unlock()

	dx, err := g.ctx.NewDeviceBuffer(n)
	if err != nil {
		return err
	}
	defer dx.Release()

	dy, err := g.ctx.NewDeviceBuffer(n)
	if err != nil {
		return err
	}
	defer dy.Release()

	dr, err := g.ctx.NewDeviceBuffer(n)
	if err != nil {
		return err
	}
	defer dr.Release()

	if err := g.ctx.Memcpy(dx.Ptr(), x, nbytes, MemcpyHostToDevice); err != nil {
		return err
	}
	if err := g.ctx.Memcpy(dy.Ptr(), y, nbytes, MemcpyHostToDevice); err != nil {
		return err
	}

	grid := Dim3{X: g.cfg.GridFor(n), Y: 1, Z: 1}
	block := Dim3{X: g.cfg.BlockSize, Y: 1, Z: 1}
	if covered := grid.X * block.X; covered < n {
		g.logger.Warn("grid does not cover the problem; trailing elements are not computed",
			"n", n, "grid", grid.X, "block", block.X, "covered", covered)
	}

	kernel := saxpyKernel{
		n: n,
		r: dr.Ptr().Float32(),
		x: dx.Ptr().Float32(),
		y: dy.Ptr().Float32(),
	}
	if err := g.ctx.Launch(kernel, grid, block); err != nil {
		return err
	}
	if err := g.ctx.Synchronize(); err != nil {
		return err
	}

	return g.ctx.Memcpy(r, dr.Ptr(), nbytes, MemcpyDeviceToHost)
}

// Close implements Backend. It waits for an in-flight Saxpy to finish.
func (g *GridBackend) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx.Destroy()
	return nil
}
