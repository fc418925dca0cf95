//go:build mpi

package mpi

/*
#cgo LDFLAGS: -lmpi
#include <mpi.h>

static int world_rank(int *rank) { return MPI_Comm_rank(MPI_COMM_WORLD, rank); }
static int world_size(int *size) { return MPI_Comm_size(MPI_COMM_WORLD, size); }
static int is_initialized(void) { int f = 0; MPI_Initialized(&f); return f; }
*/
import "C"

import "fmt"

func initWorld(func(string) string) (*World, error) {
	if C.is_initialized() == 0 {
		if rc := C.MPI_Init(nil, nil); rc != C.MPI_SUCCESS {
			return nil, fmt.Errorf("mpi: MPI_Init failed with code %d", int(rc))
		}
	}

	var rank, size C.int
	if rc := C.world_rank(&rank); rc != C.MPI_SUCCESS {
		return nil, fmt.Errorf("mpi: MPI_Comm_rank failed with code %d", int(rc))
	}
	if rc := C.world_size(&size); rc != C.MPI_SUCCESS {
		return nil, fmt.Errorf("mpi: MPI_Comm_size failed with code %d", int(rc))
	}

	return &World{
		rank:     int(rank),
		size:     int(size),
		launcher: "libmpi",
		finalize: func() error {
			if rc := C.MPI_Finalize(); rc != C.MPI_SUCCESS {
				return fmt.Errorf("mpi: MPI_Finalize failed with code %d", int(rc))
			}
			return nil
		},
	}, nil
}
