// Package saxpy configuration constants
package saxpy

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

// Kernel constants
const (
	// Scale is the fixed multiplier a in r = a*x + y
	Scale float32 = 3.14

	// ElementSize is the size of one vector element in bytes
	ElementSize = 4
)

// Thread and block dimensions
const (
	// DefaultBlockSize is the number of threads per block for device launches
	DefaultBlockSize = 256

	// MaxThreadsPerBlock bounds the configurable block size
	MaxThreadsPerBlock = 1024

	// LegacyGridBlocks is the block count of the historical fixed launch
	LegacyGridBlocks = 4

	// LegacyGridWidth is the number of indices covered by the fixed launch
	LegacyGridWidth = LegacyGridBlocks * DefaultBlockSize
)

// Memory pool parameters
const (
	// MemoryAlignment for device allocations (cache line)
	MemoryAlignment = 64
)

// DefaultBackend names the backend used when SAXPY_BACKEND is unset.
// Builds select a different default with
//
//	go build -ldflags "-X github.com/LynnColeArt/saxpy.DefaultBackend=grid"
var DefaultBackend = "openmp"

// Environment variables read by ConfigFromEnv
const (
	EnvBackend   = "SAXPY_BACKEND"
	EnvBlockSize = "SAXPY_BLOCK_SIZE"
	EnvFixedGrid = "SAXPY_FIXED_GRID"
	EnvThreads   = "OMP_NUM_THREADS"
	EnvVerify    = "SAXPY_VERIFY"
	EnvProfile   = "SAXPY_PROFILE"
	EnvCounters  = "SAXPY_COUNTERS"
	EnvLogLevel  = "SAXPY_LOG_LEVEL"
)

// Config holds the runtime settings shared by the driver and backends.
type Config struct {
	// Backend is the registered backend name
	Backend string

	// BlockSize is the number of threads per block (grid, webgpu)
	BlockSize int

	// FixedGrid launches LegacyGridBlocks blocks regardless of N, leaving
	// indices at or above LegacyGridBlocks*BlockSize unwritten.
	FixedGrid bool

	// Threads is the worker count of the openmp backend
	Threads int

	// Verify compares every result against the serial reference
	Verify bool

	// ProfileOutput is the JSON profile path; "%r" expands to the rank.
	// Empty disables profiling.
	ProfileOutput string

	// Counters adds hardware counter totals of the kernel region to the
	// profile metadata
	Counters bool

	// LogLevel for the process logger
	LogLevel slog.Level
}

// DefaultConfig returns the configuration used when no environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Backend:   DefaultBackend,
		BlockSize: DefaultBlockSize,
		Threads:   runtime.NumCPU(),
		LogLevel:  slog.LevelWarn,
	}
}

// ConfigFromEnv builds a Config from environment variables looked up with
// getenv (usually os.Getenv).
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(getenv(EnvBackend)); v != "" {
		cfg.Backend = strings.ToLower(v)
	}

	if v := strings.TrimSpace(getenv(EnvBlockSize)); v != "" {
		bs, err := strconv.Atoi(v)
		if err != nil || bs <= 0 || bs > MaxThreadsPerBlock {
			return cfg, NewInvalidArgError("ConfigFromEnv",
				fmt.Sprintf("%s must be in [1, %d], got %q", EnvBlockSize, MaxThreadsPerBlock, v))
		}
		cfg.BlockSize = bs
	}

	if v := strings.TrimSpace(getenv(EnvThreads)); v != "" {
		// OpenMP accepts a nesting list ("4,2"); only the outer level applies.
		first, _, _ := strings.Cut(v, ",")
		th, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil || th <= 0 {
			return cfg, NewInvalidArgError("ConfigFromEnv",
				fmt.Sprintf("%s must be a positive integer, got %q", EnvThreads, v))
		}
		cfg.Threads = th
	}

	var err error
	if cfg.FixedGrid, err = envBool(getenv, EnvFixedGrid); err != nil {
		return cfg, err
	}
	if cfg.Verify, err = envBool(getenv, EnvVerify); err != nil {
		return cfg, err
	}

	if cfg.Counters, err = envBool(getenv, EnvCounters); err != nil {
		return cfg, err
	}

	cfg.ProfileOutput = strings.TrimSpace(getenv(EnvProfile))

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, NewInvalidArgError("ConfigFromEnv",
				fmt.Sprintf("%s: %v", EnvLogLevel, err))
		}
	}

	return cfg, nil
}

func envBool(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, NewInvalidArgError("ConfigFromEnv",
			fmt.Sprintf("%s must be a boolean, got %q", key, v))
	}
	return b, nil
}

// GridFor returns the number of blocks a device launch uses for n elements.
func (c Config) GridFor(n int) int {
	if c.FixedGrid {
		return LegacyGridBlocks
	}
	bs := c.BlockSize
	if bs <= 0 {
		bs = DefaultBlockSize
	}
	return (n + bs - 1) / bs
}
