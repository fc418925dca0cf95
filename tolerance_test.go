package saxpy

import (
	"math"
	"strings"
	"testing"
)

func TestFloat32NearEqual(t *testing.T) {
	next := func(f float32, ulps int) float32 {
		return math.Float32frombits(math.Float32bits(f) + uint32(ulps))
	}
	nan := float32(math.NaN())

	tests := []struct {
		name     string
		a, b     float32
		tol      ToleranceConfig
		expected bool
	}{
		{"Exact_Equal", 1.0, 1.0, DefaultTolerance(), true},
		{"Signed_Zero", 0.0, float32(math.Copysign(0, -1)), ExactTolerance(), true},
		{"Within_AbsTol", 1e-8, 2e-8, DefaultTolerance(), true},
		{"Outside_AbsTol", 1e-6, 2e-6, DefaultTolerance(), false},
		{"Within_RelTol", 1000.0, 1000.0005, DefaultTolerance(), true},
		{"Outside_RelTol", 1000.0, 1000.1, DefaultTolerance(), false},
		{"Within_ULP", 3.14, next(3.14, 3), ToleranceConfig{ULPTol: 4}, true},
		{"Outside_ULP", 3.14, next(3.14, 5), ToleranceConfig{ULPTol: 4}, false},
		{"Exact_Rejects_One_ULP", 3.14, next(3.14, 1), ExactTolerance(), false},
		{"Both_NaN", nan, nan, DefaultTolerance(), true},
		{"One_NaN", nan, 1, DefaultTolerance(), false},
		{"Opposite_Sign", 1, -1, DefaultTolerance(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float32NearEqual(tt.a, tt.b, tt.tol); got != tt.expected {
				t.Errorf("Float32NearEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestFloat32ULPDiff(t *testing.T) {
	if d := Float32ULPDiff(1, math.Nextafter32(1, 2)); d != 1 {
		t.Errorf("adjacent floats differ by %d ULPs", d)
	}
	if d := Float32ULPDiff(2, 2); d != 0 {
		t.Errorf("equal floats differ by %d ULPs", d)
	}
	if d := Float32ULPDiff(1, -1); d != math.MaxInt32 {
		t.Errorf("opposite signs = %d, want MaxInt32", d)
	}
}

func TestVerifyFloat32Array(t *testing.T) {
	expected := []float32{1, 2, 3, 4}
	actual := []float32{1, 2.5, 3, 5}

	res := VerifyFloat32Array(expected, actual, DefaultTolerance())
	if res.OK() || res.NumErrors != 2 || res.FirstError != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.MaxAbsError != 1 {
		t.Errorf("MaxAbsError = %v, want 1", res.MaxAbsError)
	}
	if !strings.HasPrefix(res.String(), "FAIL: 2/4") {
		t.Errorf("String() = %q", res.String())
	}

	short := VerifyFloat32Array(expected, actual[:2], DefaultTolerance())
	if short.NumErrors != len(expected) || short.FirstError != 0 {
		t.Errorf("length mismatch result = %+v", short)
	}

	if ok := VerifyFloat32Array(expected, expected, ExactTolerance()); !ok.OK() || !strings.HasPrefix(ok.String(), "PASS") {
		t.Errorf("identical arrays: %s", ok)
	}
}

func TestVerifySaxpy(t *testing.T) {
	x, y := FillInputs(64)
	r := Reference(x, y)
	if err := VerifySaxpy(r, x, y, ExactTolerance()); err != nil {
		t.Fatalf("reference result rejected: %v", err)
	}

	r[10] += 1
	if err := VerifySaxpy(r, x, y, DefaultTolerance()); !IsVerificationError(err) {
		t.Errorf("corrupted result err = %v, want verification error", err)
	}
	if err := VerifySaxpy(r, x, y[:3], DefaultTolerance()); !IsInvalidArgError(err) {
		t.Errorf("mismatched inputs err = %v", err)
	}
}
