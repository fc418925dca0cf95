package saxpy

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny inputs from being split across goroutines.
const minChunk = 4096

// ParallelBackend splits the index range into contiguous chunks and runs
// one goroutine per chunk, the host equivalent of an OpenMP parallel for.
type ParallelBackend struct {
	threads int
	logger  *slog.Logger
}

// NewParallelBackend returns a data-parallel host backend using up to
// threads goroutines. threads <= 0 means runtime.NumCPU().
func NewParallelBackend(threads int, logger *slog.Logger) *ParallelBackend {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParallelBackend{threads: threads, logger: logger}
}

// Name implements Backend.
func (*ParallelBackend) Name() string { return "openmp" }

// Threads returns the configured worker count.
func (p *ParallelBackend) Threads() int { return p.threads }

// Saxpy implements Backend.
func (p *ParallelBackend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if err := checkLengths("openmp.Saxpy", r, x, y); err != nil {
		return err
	}
	n := len(r)

	workers := p.threads
	if maxWorkers := (n + minChunk - 1) / minChunk; workers > maxWorkers {
		workers = maxWorkers
	}
	if workers <= 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		Apply(r, x, y)
		return nil
	}

	chunk := (n + workers - 1) / workers
	p.logger.Debug("parallel saxpy", "n", n, "workers", workers, "chunk", chunk)

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			Apply(r[start:end], x[start:end], y[start:end])
			return nil
		})
	}
	return g.Wait()
}

// Close implements Backend.
func (*ParallelBackend) Close() error { return nil }
