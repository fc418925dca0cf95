package saxpy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Backend executes the SAXPY kernel on one execution target.
//
// Saxpy writes r[i] = Scale*x[i] + y[i] for every i; r, x and y have the
// same length. Implementations release every resource they acquire inside
// a call before returning, on success and on error.
type Backend interface {
	Name() string
	Saxpy(ctx context.Context, r, x, y []float32) error
	Close() error
}

// Factory opens a backend with the given configuration.
type Factory func(cfg Config, logger *slog.Logger) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. It panics if name is
// empty, the factory is nil, or name is already registered.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || factory == nil {
		panic("saxpy: Register with empty name or nil factory")
	}
	if _, dup := registry[name]; dup {
		panic("saxpy: Register called twice for backend " + name)
	}
	registry[name] = factory
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the backend registered under name.
func Open(name string, cfg Config, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, &SaxpyError{
			Type:    ErrTypeInvalidArg,
			Op:      "Open",
			Message: fmt.Sprintf("unknown backend %q (available: %s)", name, strings.Join(Backends(), ", ")),
			Err:     ErrUnknownBackend,
		}
	}

	b, err := factory(cfg, logger.With("backend", name))
	if err != nil {
		return nil, fmt.Errorf("open backend %s: %w", name, err)
	}
	return b, nil
}

func init() {
	Register("serial", func(Config, *slog.Logger) (Backend, error) { return NewSerialBackend(), nil })
	Register("blas", func(Config, *slog.Logger) (Backend, error) { return NewBLASBackend(), nil })
	Register("openmp", func(cfg Config, logger *slog.Logger) (Backend, error) {
		return NewParallelBackend(cfg.Threads, logger), nil
	})
	Register("grid", func(cfg Config, logger *slog.Logger) (Backend, error) {
		return NewGridBackend(cfg, logger), nil
	})
}
