package saxpy

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenOrFail opens a registered backend and closes it when the test ends
func OpenOrFail(t testing.TB, name string, cfg Config) Backend {
	t.Helper()
	b, err := Open(name, cfg, discardLogger())
	if err != nil {
		t.Fatalf("Failed to open backend %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("Close %s: %v", name, err)
		}
	})
	return b
}

// SaxpyOrFail runs the benchmark inputs of size n through b
func SaxpyOrFail(t testing.TB, b Backend, n int) (r, x, y []float32) {
	t.Helper()
	x, y = FillInputs(n)
	r = make([]float32, n)
	if err := b.Saxpy(context.Background(), r, x, y); err != nil {
		t.Fatalf("%s Saxpy(n=%d) failed: %v", b.Name(), n, err)
	}
	return r, x, y
}

// MallocOrFail allocates device memory and fails the test if unsuccessful
func MallocOrFail(t testing.TB, ctx *Context, size int) DevicePtr {
	t.Helper()
	ptr, err := ctx.Malloc(size)
	if err != nil {
		t.Fatalf("Failed to allocate %d bytes: %v", size, err)
	}
	return ptr
}

// SynchronizeOrFail synchronizes and fails the test if unsuccessful
func SynchronizeOrFail(t testing.TB, ctx *Context) {
	t.Helper()
	if err := ctx.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}
