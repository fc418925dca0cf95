package saxpy

import (
	"runtime"
	"strings"
	"testing"
)

func TestCPUFeatures(t *testing.T) {
	f := DetectCPUFeatures()
	t.Logf("CPU features: %s", f)

	if !strings.HasPrefix(f.String(), runtime.GOARCH+": ") {
		t.Errorf("String() = %q", f.String())
	}
	if runtime.GOARCH == "amd64" && (f.HasASIMD || f.HasSVE) {
		t.Error("arm64 features reported on amd64")
	}
	if f.HasAVX2 && !f.HasAVX {
		t.Error("AVX2 without AVX")
	}
}

func TestCPUFeaturesList(t *testing.T) {
	f := CPUFeatures{HasAVX: true, HasFMA: true, HasSVE: true}
	if got := strings.Join(f.List(), ","); got != "AVX,FMA,SVE" {
		t.Errorf("List() = %s", got)
	}
	if got := (CPUFeatures{}).String(); !strings.HasSuffix(got, "no SIMD extensions detected") {
		t.Errorf("String() = %q", got)
	}
}
