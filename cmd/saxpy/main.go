// Command saxpy runs the SAXPY kernel r = 3.14*x + y once per process.
//
// Usage:
//
//	saxpy [-n N]
//
// The backend and diagnostics are configured through the environment:
// SAXPY_BACKEND (serial, blas, openmp, grid, webgpu), SAXPY_BLOCK_SIZE,
// SAXPY_FIXED_GRID, OMP_NUM_THREADS, SAXPY_VERIFY, SAXPY_PROFILE,
// SAXPY_COUNTERS and SAXPY_LOG_LEVEL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/LynnColeArt/saxpy"
	"github.com/LynnColeArt/saxpy/internal/mpi"
)

// Exit codes
const (
	exitOK      = 0
	exitUsage   = 1
	exitRuntime = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// parseArgs accepts the single option -n <N>. "Problem size" is printed
// each time -n is parsed.
func parseArgs(args []string, stdout io.Writer) (int, error) {
	n := 0
	fs := flag.NewFlagSet("saxpy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Func("n", "problem size", func(v string) error {
		size, err := strconv.Atoi(v)
		if err != nil || size < 0 {
			return fmt.Errorf("problem size must be a non-negative integer")
		}
		n = size
		fmt.Fprintf(stdout, "Problem size: %d\n", n)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return 0, usageError(err)
	}
	return n, nil
}

// usageError maps flag parse failures onto getopt-style messages.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return saxpy.NewUsageError("parseArgs", "Unknown option -h.")
	}
	msg := err.Error()
	for _, prefix := range []string{"flag provided but not defined: -", "flag needs an argument: -"} {
		if name, ok := strings.CutPrefix(msg, prefix); ok {
			name = strings.TrimLeft(name, "-")
			if name != "" {
				name = name[:1]
			}
			return saxpy.NewUsageError("parseArgs", fmt.Sprintf("Unknown option -%s.", name))
		}
	}
	return saxpy.NewUsageError("parseArgs", "Invalid argument: "+msg)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	n, err := parseArgs(args, stdout)
	if err != nil {
		var se *saxpy.SaxpyError
		if errors.As(err, &se) {
			fmt.Fprintln(stderr, se.Message)
		} else {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}

	cfg, err := saxpy.ConfigFromEnv(getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitRuntime
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	world, err := mpi.Init(getenv)
	if err != nil {
		logger.Error("multi-process init failed", "err", err)
		return exitRuntime
	}
	defer func() {
		if err := world.Finalize(); err != nil {
			logger.Error("multi-process finalize failed", "err", err)
		}
	}()
	logger = logger.With("rank", world.Rank())
	logger.Debug("process started", "size", world.Size(), "launcher", world.Launcher(), "n", n)

	var obs saxpy.Observer = saxpy.NopObserver{}
	var profiler *saxpy.RegionProfiler
	if cfg.ProfileOutput != "" {
		profiler = saxpy.NewRegionProfiler(saxpy.ProfilePath(cfg.ProfileOutput, world.Rank()))
		obs = profiler
	}
	if cfg.Counters {
		counters, err := saxpy.NewCounterObserver(obs, saxpy.RegionKernel, logger)
		if err != nil {
			logger.Warn("hardware counters disabled", "err", err)
		} else {
			defer counters.Close()
			obs = counters
		}
	}
	saxpy.AnnotateRun(obs, cfg.Backend, n, world.Rank(), world.Size())

	if err := execute(ctx, cfg, n, world, obs, stdout, logger); err != nil {
		logger.Error("saxpy failed", "backend", cfg.Backend, "n", n, "err", err)
		return exitRuntime
	}

	if profiler != nil {
		if err := profiler.Flush(); err != nil {
			logger.Warn("writing profile failed", "err", err)
		}
	}
	return exitOK
}

func execute(ctx context.Context, cfg saxpy.Config, n int, world *mpi.World,
	obs saxpy.Observer, stdout io.Writer, logger *slog.Logger) error {
	obs.Begin(saxpy.RegionMain)
	defer obs.End(saxpy.RegionMain)

	backend, err := saxpy.Open(cfg.Backend, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing backend failed", "err", err)
		}
	}()

	driver := saxpy.NewDriver(backend,
		saxpy.WithObserver(obs),
		saxpy.WithLogger(logger),
		saxpy.WithVerify(cfg.Verify))

	x, y := driver.Setup(n)
	if _, err := driver.Run(ctx, x, y); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Kernel done (%d): %d\n", world.Rank(), n)
	return nil
}
