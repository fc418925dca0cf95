package saxpy

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks instruction set extensions relevant to vector kernels
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasFMA     bool
	HasAVX512F bool
	HasASIMD   bool // arm64 Advanced SIMD
	HasSVE     bool // arm64 Scalable Vector Extension
}

// DetectCPUFeatures reads the host CPU features.
func DetectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasFMA:     cpu.X86.HasFMA,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasASIMD:   cpu.ARM64.HasASIMD,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// List returns the detected feature names in a fixed order.
func (f CPUFeatures) List() []string {
	var out []string
	for _, feat := range []struct {
		ok   bool
		name string
	}{
		{f.HasSSE4, "SSE4"},
		{f.HasAVX, "AVX"},
		{f.HasAVX2, "AVX2"},
		{f.HasFMA, "FMA"},
		{f.HasAVX512F, "AVX512F"},
		{f.HasASIMD, "ASIMD"},
		{f.HasSVE, "SVE"},
	} {
		if feat.ok {
			out = append(out, feat.name)
		}
	}
	return out
}

// String formats the features as "GOARCH: A, B, C".
func (f CPUFeatures) String() string {
	list := f.List()
	if len(list) == 0 {
		return runtime.GOARCH + ": no SIMD extensions detected"
	}
	return runtime.GOARCH + ": " + strings.Join(list, ", ")
}
