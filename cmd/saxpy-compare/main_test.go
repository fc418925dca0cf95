package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LynnColeArt/saxpy"
)

func profileWith(kernel time.Duration) saxpy.Profile {
	return saxpy.Profile{
		Metadata: map[string]any{"backend": "grid", "n": 1200},
		Regions: []saxpy.RegionStats{
			{Name: saxpy.RegionMain, Count: 1, Total: 10 * time.Millisecond},
			{Name: saxpy.RegionKernel, Count: 2, Total: 2 * kernel},
		},
	}
}

func writeProfile(t *testing.T, name string, prof saxpy.Profile) string {
	t.Helper()
	data, err := json.Marshal(prof)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompareProfiles(t *testing.T) {
	base := profileWith(4 * time.Millisecond)

	tests := []struct {
		name    string
		current saxpy.Profile
		want    string
	}{
		{"same", profileWith(4 * time.Millisecond), statusPass},
		{"slower", profileWith(8 * time.Millisecond), statusSlower},
		{"faster", profileWith(1 * time.Millisecond), statusFaster},
		{"missing", saxpy.Profile{Regions: []saxpy.RegionStats{{Name: saxpy.RegionMain, Count: 1, Total: 10 * time.Millisecond}}}, statusMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comps := compareProfiles(base, tt.current, 1.1)
			if len(comps) != 2 {
				t.Fatalf("comparisons = %+v", comps)
			}
			if comps[0].Status != statusPass {
				t.Errorf("main region = %+v", comps[0])
			}
			if comps[1].Status != tt.want {
				t.Errorf("kernel region = %s, want %s", comps[1].Status, tt.want)
			}
		})
	}
}

func TestRunExitCodes(t *testing.T) {
	base := writeProfile(t, "base.json", profileWith(4*time.Millisecond))
	same := writeProfile(t, "same.json", profileWith(4*time.Millisecond))
	slow := writeProfile(t, "slow.json", profileWith(8*time.Millisecond))

	var stdout, stderr bytes.Buffer
	if code := run([]string{base, same}, &stdout, &stderr); code != 0 {
		t.Errorf("same profile exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "backend    grid -> grid") {
		t.Errorf("stdout = %s", stdout.String())
	}
	if code := run([]string{base, slow}, &stdout, &stderr); code != 1 {
		t.Errorf("slower profile exit %d, want 1", code)
	}
	if code := run([]string{"-perf-regress", "3", base, slow}, &stdout, &stderr); code != 0 {
		t.Errorf("within threshold exit %d, want 0", code)
	}
	if code := run([]string{base}, &stdout, &stderr); code != 2 {
		t.Errorf("missing argument exit %d, want 2", code)
	}
	if code := run([]string{base, filepath.Join(t.TempDir(), "nope.json")}, &stdout, &stderr); code != 2 {
		t.Errorf("unreadable profile exit %d, want 2", code)
	}
}
