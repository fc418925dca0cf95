// Command saxpy-compare compares region timings of two saxpy profiles,
// as written with SAXPY_PROFILE, and fails on regressions.
//
// Usage:
//
//	saxpy-compare [-perf-regress 1.1] baseline.json current.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/LynnColeArt/saxpy"
)

// Comparison statuses
const (
	statusPass    = "PASS"
	statusSlower  = "SLOWER"
	statusFaster  = "FASTER"
	statusMissing = "MISSING"
)

type comparison struct {
	Region   string
	Status   string
	Baseline time.Duration // mean per call
	Current  time.Duration
	Speedup  float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("saxpy-compare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	perfRegress := fs.Float64("perf-regress", 1.1, "regression threshold (1.1 = 10% slower)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 || *perfRegress < 1 {
		fmt.Fprintln(stderr, "Usage: saxpy-compare [-perf-regress R>=1] baseline.json current.json")
		return 2
	}

	baseline, err := loadProfile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load baseline: %v\n", err)
		return 2
	}
	current, err := loadProfile(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load current profile: %v\n", err)
		return 2
	}

	comps := compareProfiles(baseline, current, *perfRegress)
	printSummary(stdout, baseline, current, comps)

	for _, c := range comps {
		if c.Status == statusSlower || c.Status == statusMissing {
			return 1
		}
	}
	return 0
}

func loadProfile(path string) (saxpy.Profile, error) {
	var prof saxpy.Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return prof, err
	}
	if err := json.Unmarshal(data, &prof); err != nil {
		return prof, fmt.Errorf("%s: %w", path, err)
	}
	return prof, nil
}

func mean(r saxpy.RegionStats) time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Count)
}

func compareProfiles(baseline, current saxpy.Profile, perfRegress float64) []comparison {
	currentMap := make(map[string]saxpy.RegionStats, len(current.Regions))
	for _, r := range current.Regions {
		currentMap[r.Name] = r
	}

	comps := make([]comparison, 0, len(baseline.Regions))
	for _, base := range baseline.Regions {
		c := comparison{Region: base.Name, Baseline: mean(base), Status: statusPass}

		curr, ok := currentMap[base.Name]
		if !ok {
			c.Status = statusMissing
			comps = append(comps, c)
			continue
		}
		c.Current = mean(curr)
		if c.Current > 0 {
			c.Speedup = float64(c.Baseline) / float64(c.Current)
		}

		switch {
		case c.Current > 0 && c.Speedup < 1/perfRegress:
			c.Status = statusSlower
		case c.Speedup > perfRegress:
			c.Status = statusFaster
		}
		comps = append(comps, c)
	}
	return comps
}

func printSummary(w io.Writer, baseline, current saxpy.Profile, comps []comparison) {
	fmt.Fprintln(w, "=== SAXPY Profile Comparison ===")
	for _, key := range []string{"backend", "n", "mpi.size"} {
		fmt.Fprintf(w, "%-10s %v -> %v\n", key, baseline.Metadata[key], current.Metadata[key])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-20s %-8s %12s %12s %8s\n", "Region", "Status", "Baseline", "Current", "Speedup")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, c := range comps {
		fmt.Fprintf(w, "%-20s %-8s %12v %12v %8.2f\n",
			c.Region, c.Status, c.Baseline, c.Current, c.Speedup)
	}
}
