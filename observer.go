package saxpy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Observer receives profiling events around the phases of a run. It is a
// side channel: implementations must not influence control flow.
type Observer interface {
	SetMetadata(key string, value any)
	Begin(region string)
	End(region string)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) SetMetadata(string, any) {}
func (NopObserver) Begin(string)            {}
func (NopObserver) End(string)              {}

// RegionStats summarizes one named region.
type RegionStats struct {
	Name  string        `json:"name"`
	Count int           `json:"count"`
	Total time.Duration `json:"total_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Profile is the document written by RegionProfiler.Flush.
type Profile struct {
	Metadata map[string]any `json:"metadata"`
	Regions  []RegionStats  `json:"regions"`
	Written  time.Time      `json:"written"`
}

// RegionProfiler records wall time per region and run metadata, and writes
// them as JSON. Regions may nest; Begin/End pairs of the same name must
// not overlap.
type RegionProfiler struct {
	mu       sync.Mutex
	path     string
	now      func() time.Time
	metadata map[string]any
	open     map[string]time.Time
	regions  map[string]*RegionStats
	order    []string
}

// NewRegionProfiler creates a profiler that writes to path on Flush.
func NewRegionProfiler(path string) *RegionProfiler {
	return &RegionProfiler{
		path:     path,
		now:      time.Now,
		metadata: make(map[string]any),
		open:     make(map[string]time.Time),
		regions:  make(map[string]*RegionStats),
	}
}

// ProfilePath expands "%r" in pattern to rank.
func ProfilePath(pattern string, rank int) string {
	return strings.ReplaceAll(pattern, "%r", strconv.Itoa(rank))
}

// SetMetadata implements Observer.
func (p *RegionProfiler) SetMetadata(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadata[key] = value
}

// Begin implements Observer.
func (p *RegionProfiler) Begin(region string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open[region] = p.now()
}

// End implements Observer. An End without a matching Begin is ignored.
func (p *RegionProfiler) End(region string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start, ok := p.open[region]
	if !ok {
		return
	}
	delete(p.open, region)
	d := p.now().Sub(start)

	st, ok := p.regions[region]
	if !ok {
		st = &RegionStats{Name: region, Min: d, Max: d}
		p.regions[region] = st
		p.order = append(p.order, region)
	}
	st.Count++
	st.Total += d
	st.Min = min(st.Min, d)
	st.Max = max(st.Max, d)
}

// Snapshot returns the recorded profile. Regions keep first-seen order.
func (p *RegionProfiler) Snapshot() Profile {
	p.mu.Lock()
	defer p.mu.Unlock()

	md := make(map[string]any, len(p.metadata))
	for k, v := range p.metadata {
		md[k] = v
	}
	regions := make([]RegionStats, 0, len(p.order))
	for _, name := range p.order {
		regions = append(regions, *p.regions[name])
	}
	return Profile{Metadata: md, Regions: regions, Written: p.now()}
}

// Flush writes the profile as indented JSON, creating parent directories.
func (p *RegionProfiler) Flush() error {
	if p.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}
	return os.WriteFile(p.path, data, 0644)
}

// MetadataKeys returns the sorted metadata keys, for display.
func (pr Profile) MetadataKeys() []string {
	keys := make([]string, 0, len(pr.Metadata))
	for k := range pr.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
