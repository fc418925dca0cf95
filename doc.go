// Copyright ©2026 The saxpy Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package saxpy is a SAXPY micro-benchmark harness.
//
// It computes r[i] = 3.14*x[i] + y[i] over float32 vectors using one of
// several interchangeable backends:
//   - serial: a plain loop on the host
//   - blas: gonum's blas32 Axpy on the host
//   - openmp: a data-parallel loop split across worker goroutines
//   - grid: a CUDA-shaped device runtime (Malloc, Memcpy, grid launch)
//     executing thread blocks on CPU cores
//   - webgpu: a WebGPU compute device, registered by importing
//     github.com/LynnColeArt/saxpy/webgpu
//
// A Driver stages the inputs, invokes the selected backend and returns the
// result. An Observer can be attached to record named profiling regions and
// run metadata without affecting results.
package saxpy
