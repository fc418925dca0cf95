package saxpy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock advances by step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestProfiler(path string) *RegionProfiler {
	p := NewRegionProfiler(path)
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	p.now = clock.now
	return p
}

func TestRegionProfilerRecordsRegions(t *testing.T) {
	p := newTestProfiler("")

	p.Begin(RegionMain)
	p.Begin(RegionKernel)
	p.End(RegionKernel)
	p.Begin(RegionKernel)
	p.End(RegionKernel)
	p.End(RegionMain)
	p.End("never-begun")

	prof := p.Snapshot()
	if len(prof.Regions) != 2 {
		t.Fatalf("regions = %+v", prof.Regions)
	}
	kernel, main := prof.Regions[0], prof.Regions[1]
	if kernel.Name != RegionKernel || main.Name != RegionMain {
		t.Fatalf("region order = %s, %s", kernel.Name, main.Name)
	}
	if kernel.Count != 2 || kernel.Total != 2*time.Millisecond {
		t.Errorf("kernel = %+v", kernel)
	}
	if kernel.Min != time.Millisecond || kernel.Max != time.Millisecond {
		t.Errorf("kernel min/max = %v/%v", kernel.Min, kernel.Max)
	}
	if main.Count != 1 || main.Total != 5*time.Millisecond {
		t.Errorf("main = %+v", main)
	}
}

func TestRegionProfilerFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ProfilePath("saxpy-%r.json", 3))
	p := newTestProfiler(path)
	p.SetMetadata("backend", "serial")
	p.SetMetadata("n", 4)
	p.Begin(RegionKernel)
	p.End(RegionKernel)

	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if filepath.Base(path) != "saxpy-3.json" {
		t.Errorf("ProfilePath expanded to %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		t.Fatalf("profile is not valid JSON: %v", err)
	}
	if prof.Metadata["backend"] != "serial" || prof.Metadata["n"] != float64(4) {
		t.Errorf("metadata = %v", prof.Metadata)
	}
	if len(prof.Regions) != 1 || prof.Regions[0].Count != 1 {
		t.Errorf("regions = %+v", prof.Regions)
	}
	if keys := prof.MetadataKeys(); len(keys) != 2 || keys[0] != "backend" {
		t.Errorf("MetadataKeys() = %v", keys)
	}
}

func TestRegionProfilerEmptyPath(t *testing.T) {
	if err := NewRegionProfiler("").Flush(); err != nil {
		t.Errorf("Flush with empty path = %v", err)
	}
}
