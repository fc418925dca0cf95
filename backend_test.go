package saxpy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

var hostBackends = []string{"serial", "blas", "openmp", "grid"}

func TestBackendsRegistered(t *testing.T) {
	names := Backends()
	for _, want := range hostBackends {
		if !slices.Contains(names, want) {
			t.Errorf("backend %q not registered (have %v)", want, names)
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("Backends() not sorted: %v", names)
	}
}

func TestBackendsMatchReference(t *testing.T) {
	sizes := []int{0, 1, 4, 255, 256, 257, 1024, 1200, 10000, 100003}
	cfg := DefaultConfig()
	cfg.Threads = 4

	for _, name := range hostBackends {
		b := OpenOrFail(t, name, cfg)
		if b.Name() != name {
			t.Errorf("Name() = %q, want %q", b.Name(), name)
		}
		for _, n := range sizes {
			t.Run(fmt.Sprintf("%s/N_%d", name, n), func(t *testing.T) {
				r, x, y := SaxpyOrFail(t, b, n)
				if err := VerifySaxpy(r, x, y, DefaultTolerance()); err != nil {
					t.Error(err)
				}
			})
		}
	}
}

func TestLoopBackendsBitIdentical(t *testing.T) {
	const n = 50000
	cfg := DefaultConfig()
	cfg.Threads = 3

	want, _, _ := SaxpyOrFail(t, OpenOrFail(t, "serial", cfg), n)
	for _, name := range []string{"openmp", "grid"} {
		got, _, _ := SaxpyOrFail(t, OpenOrFail(t, name, cfg), n)
		res := VerifyFloat32Array(want, got, ExactTolerance())
		if !res.OK() {
			t.Errorf("%s differs from serial: %v", name, res)
		}
	}
}

func TestBackendsRejectLengthMismatch(t *testing.T) {
	for _, name := range hostBackends {
		b := OpenOrFail(t, name, DefaultConfig())
		err := b.Saxpy(context.Background(), make([]float32, 3), make([]float32, 3), make([]float32, 2))
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s: err = %v, want ErrLengthMismatch", name, err)
		}
		if !IsInvalidArgError(err) {
			t.Errorf("%s: expected invalid argument error, got %v", name, err)
		}
	}
}

func TestBackendsHonourCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, y := FillInputs(100000)
	for _, name := range hostBackends {
		b := OpenOrFail(t, name, DefaultConfig())
		err := b.Saxpy(ctx, make([]float32, len(x)), x, y)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%s: err = %v, want context.Canceled", name, err)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("cuda-on-a-toaster", DefaultConfig(), nil)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
	if !IsInvalidArgError(err) {
		t.Errorf("expected invalid argument error, got %v", err)
	}
}

var (
	errFactory      = errors.New("boom")
	registerFailing sync.Once
)

func TestOpenFactoryError(t *testing.T) {
	registerFailing.Do(func() {
		Register("test-failing", func(Config, *slog.Logger) (Backend, error) { return nil, errFactory })
	})

	_, err := Open("test-failing", DefaultConfig(), nil)
	if !errors.Is(err, errFactory) {
		t.Errorf("err = %v, want wrapped factory error", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register of a duplicate name did not panic")
		}
	}()
	Register("serial", func(Config, *slog.Logger) (Backend, error) { return NewSerialBackend(), nil })
}

func BenchmarkBackends(b *testing.B) {
	cfg := DefaultConfig()
	for _, name := range hostBackends {
		for _, n := range []int{1024, 1 << 20} {
			b.Run(fmt.Sprintf("%s/N_%d", name, n), func(b *testing.B) {
				be := OpenOrFail(b, name, cfg)
				x, y := FillInputs(n)
				r := make([]float32, n)

				b.SetBytes(int64(3 * n * ElementSize)) // read x, y; write r
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := be.Saxpy(context.Background(), r, x, y); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
