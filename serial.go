package saxpy

import (
	"context"

	"gonum.org/v1/gonum/blas/blas32"
)

// SerialBackend runs the kernel as a single loop on the calling goroutine.
type SerialBackend struct{}

// NewSerialBackend returns the serial host backend.
func NewSerialBackend() *SerialBackend {
	return &SerialBackend{}
}

// Name implements Backend.
func (*SerialBackend) Name() string { return "serial" }

// Saxpy implements Backend.
func (*SerialBackend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if err := checkLengths("serial.Saxpy", r, x, y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	Apply(r, x, y)
	return nil
}

// Close implements Backend.
func (*SerialBackend) Close() error { return nil }

// BLASBackend computes r = y followed by the level-1 BLAS update
// r += Scale*x using gonum's blas32.
type BLASBackend struct{}

// NewBLASBackend returns the gonum BLAS host backend.
func NewBLASBackend() *BLASBackend {
	return &BLASBackend{}
}

// Name implements Backend.
func (*BLASBackend) Name() string { return "blas" }

// Saxpy implements Backend.
func (*BLASBackend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if err := checkLengths("blas.Saxpy", r, x, y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r) == 0 {
		return nil
	}
	copy(r, y)
	blas32.Axpy(Scale,
		blas32.Vector{N: len(x), Data: x, Inc: 1},
		blas32.Vector{N: len(r), Data: r, Inc: 1})
	return nil
}

// Close implements Backend.
func (*BLASBackend) Close() error { return nil }
