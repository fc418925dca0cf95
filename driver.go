package saxpy

import (
	"context"
	"log/slog"
	"runtime"
)

// Region names reported to the Observer.
const (
	RegionMain   = "main"
	RegionSetup  = "setup"
	RegionKernel = "kernel"
)

// Driver stages inputs, invokes a backend and returns the result.
type Driver struct {
	backend  Backend
	observer Observer
	logger   *slog.Logger
	verify   bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithObserver attaches a profiling observer.
func WithObserver(obs Observer) DriverOption {
	return func(d *Driver) {
		if obs != nil {
			d.observer = obs
		}
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithVerify enables comparison of every result with the serial reference.
func WithVerify(verify bool) DriverOption {
	return func(d *Driver) {
		d.verify = verify
	}
}

// NewDriver returns a driver for backend.
func NewDriver(backend Backend, opts ...DriverOption) *Driver {
	d := &Driver{
		backend:  backend,
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend returns the backend the driver runs on.
func (d *Driver) Backend() Backend {
	return d.backend
}

// Run computes r = Scale*x + y on the driver's backend. The kernel call is
// wrapped in the RegionKernel observer region.
func (d *Driver) Run(ctx context.Context, x, y []float32) ([]float32, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	r := make([]float32, len(x))

	d.observer.Begin(RegionKernel)
	err := d.backend.Saxpy(ctx, r, x, y)
	d.observer.End(RegionKernel)
	if err != nil {
		return nil, err
	}

	if d.verify {
		if err := VerifySaxpy(r, x, y, DefaultTolerance()); err != nil {
			return nil, err
		}
		d.logger.Debug("result verified", "n", len(r))
	}
	return r, nil
}

// Setup fills the benchmark inputs for size n inside the RegionSetup
// observer region.
func (d *Driver) Setup(n int) (x, y []float32) {
	d.observer.Begin(RegionSetup)
	defer d.observer.End(RegionSetup)
	return FillInputs(n)
}

// AnnotateRun records build and run metadata on obs.
func AnnotateRun(obs Observer, backend string, n, rank, size int) {
	version, _ := Version()
	obs.SetMetadata("compiler", runtime.Compiler)
	obs.SetMetadata("compiler.version", runtime.Version())
	obs.SetMetadata("goos", runtime.GOOS)
	obs.SetMetadata("goarch", runtime.GOARCH)
	obs.SetMetadata("cpu.features", DetectCPUFeatures().List())
	obs.SetMetadata("saxpy.version", version)
	obs.SetMetadata("backend", backend)
	obs.SetMetadata("n", n)
	obs.SetMetadata("mpi.rank", rank)
	obs.SetMetadata("mpi.size", size)
}
