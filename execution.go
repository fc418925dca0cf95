package saxpy

import (
	"fmt"
	"runtime"
	"sync"
)

// launchInternal schedules one kernel launch on stream. Blocks are spread
// over at most runtime.NumCPU() goroutines; the threads of a block run
// sequentially on the goroutine that owns the block.
func (ctx *Context) launchInternal(
	kernelFunc func(ThreadID, ...interface{}),
	grid, block Dim3,
	stream *Stream,
	args ...interface{},
) error {
	grid = grid.normalize()
	block = block.normalize()

	if grid.X < 0 || grid.Y < 0 || grid.Z < 0 {
		return NewInvalidArgError("Launch", fmt.Sprintf("invalid grid %+v", grid))
	}
	if block.X <= 0 || block.Y <= 0 || block.Z <= 0 || block.Size() > MaxThreadsPerBlock {
		return NewInvalidArgError("Launch", fmt.Sprintf("invalid block %+v", block))
	}

	ctx.mu.Lock()
	destroyed := ctx.destroyed
	ctx.mu.Unlock()
	if destroyed {
		return NewExecutionError("Launch", "context destroyed", nil)
	}

	gridSize := grid.Size()
	blockSize := block.Size()

	if gridSize == 0 {
		// keeps stream ordering for empty launches
		stream.Submit(func() {})
		return nil
	}

	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() {
		var wg sync.WaitGroup
		for w := 0; w < numWorkers; w++ {
			startBlock := w * blocksPerWorker
			endBlock := min(startBlock+blocksPerWorker, gridSize)
			if startBlock >= endBlock {
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if p := recover(); p != nil {
						ctx.recordLaunchError(NewExecutionError("Launch",
							fmt.Sprintf("kernel panicked in blocks [%d, %d)", startBlock, endBlock),
							fmt.Errorf("%v", p)))
					}
				}()

				for blockID := startBlock; blockID < endBlock; blockID++ {
					blockIdx := linearTo3D(blockID, grid)
					for threadID := 0; threadID < blockSize; threadID++ {
						kernelFunc(ThreadID{
							BlockIdx:  blockIdx,
							ThreadIdx: linearTo3D(threadID, block),
							BlockDim:  block,
							GridDim:   grid,
						}, args...)
					}
				}
			}()
		}
		wg.Wait()
	})

	return nil
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
