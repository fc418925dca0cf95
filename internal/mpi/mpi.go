// Package mpi gives the benchmark its place in a multi-process launch.
//
// By default the rank and size are read from the environment set up by the
// process launcher (mpirun, mpiexec, srun, ...). Building with -tags mpi
// links against the system libmpi and calls MPI_Init/MPI_Finalize instead.
package mpi

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// World is the MPI_COMM_WORLD view of the current process.
type World struct {
	rank     int
	size     int
	launcher string

	once     sync.Once
	finalize func() error
	err      error
}

// Rank returns the rank of this process, 0 for a single process.
func (w *World) Rank() int { return w.rank }

// Size returns the number of processes in the launch.
func (w *World) Size() int { return w.size }

// Launcher names the runtime the rank was taken from ("single" when no
// launcher was detected).
func (w *World) Launcher() string { return w.launcher }

// Finalize shuts the runtime down. Later calls return the first result.
func (w *World) Finalize() error {
	w.once.Do(func() {
		if w.finalize != nil {
			w.err = w.finalize()
		}
	})
	return w.err
}

// Init initializes the multi-process runtime. Launcher variables are looked
// up with getenv, or os.Getenv when getenv is nil; builds with -tags mpi
// ask libmpi instead.
func Init(getenv func(string) string) (*World, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	return initWorld(getenv)
}

// launcherVars lists the rank/size variable pairs exported by common
// launchers, most specific first.
var launcherVars = []struct {
	name, rank, size string
}{
	{"openmpi", "OMPI_COMM_WORLD_RANK", "OMPI_COMM_WORLD_SIZE"},
	{"mvapich", "MV2_COMM_WORLD_RANK", "MV2_COMM_WORLD_SIZE"},
	{"pmix", "PMIX_RANK", "PMI_SIZE"},
	{"pmi", "PMI_RANK", "PMI_SIZE"},
	{"slurm", "SLURM_PROCID", "SLURM_NTASKS"},
}

// FromEnv derives the world from launcher environment variables looked up
// with getenv. Without any launcher variables it returns rank 0 of 1.
func FromEnv(getenv func(string) string) (*World, error) {
	for _, lv := range launcherVars {
		rankStr := getenv(lv.rank)
		if rankStr == "" {
			continue
		}
		rank, err := strconv.Atoi(rankStr)
		if err != nil || rank < 0 {
			return nil, fmt.Errorf("mpi: invalid %s=%q", lv.rank, rankStr)
		}

		size := rank + 1
		if sizeStr := getenv(lv.size); sizeStr != "" {
			size, err = strconv.Atoi(sizeStr)
			if err != nil || size <= 0 {
				return nil, fmt.Errorf("mpi: invalid %s=%q", lv.size, sizeStr)
			}
		}
		if rank >= size {
			return nil, fmt.Errorf("mpi: rank %d out of range for size %d (%s)", rank, size, lv.name)
		}
		return &World{rank: rank, size: size, launcher: lv.name}, nil
	}
	return &World{rank: 0, size: 1, launcher: "single"}, nil
}
