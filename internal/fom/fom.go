// Package fom extracts figures of merit from saxpy run output and checks
// the run's success criterion.
package fom

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

var (
	kernelDone  = regexp.MustCompile(`Kernel done \((?P<rank>[0-9]+)\): (?P<size>[0-9]+)`)
	problemSize = regexp.MustCompile(`Problem size: (?P<size>-?[0-9]+)`)
)

// RankResult is the completion line of one rank.
type RankResult struct {
	Rank int
	Size int
}

// Report collects everything recognised in one output stream.
type Report struct {
	ProblemSizes []int        // every "Problem size" line, in order
	Ranks        []RankResult // every "Kernel done" line, in order
	Lines        int          // total lines read
}

// Parse reads run output line by line.
func Parse(r io.Reader) (*Report, error) {
	rep := &Report{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rep.Lines++
		line := scanner.Text()

		if m := kernelDone.FindStringSubmatch(line); m != nil {
			rank, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: rank: %w", rep.Lines, err)
			}
			size, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: size: %w", rep.Lines, err)
			}
			rep.Ranks = append(rep.Ranks, RankResult{Rank: rank, Size: size})
			continue
		}
		if m := problemSize.FindStringSubmatch(line); m != nil {
			size, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: problem size: %w", rep.Lines, err)
			}
			rep.ProblemSizes = append(rep.ProblemSizes, size)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return rep, nil
}

// Success reports whether at least one rank completed the kernel.
func (r *Report) Success() bool {
	return len(r.Ranks) > 0
}

// Criteria are expectations checked by Check.
type Criteria struct {
	Ranks int // expected number of distinct ranks 0..Ranks-1; 0 disables
	Size  int // expected problem size on every rank; negative disables
}

// AnyRun accepts any run that completed on at least one rank.
var AnyRun = Criteria{Ranks: 0, Size: -1}

// Check verifies the success criterion and the expectations in c.
func (r *Report) Check(c Criteria) error {
	if !r.Success() {
		return fmt.Errorf("no \"Kernel done\" line found in %d lines", r.Lines)
	}

	seen := make(map[int]bool, len(r.Ranks))
	for _, rr := range r.Ranks {
		if seen[rr.Rank] {
			return fmt.Errorf("rank %d reported more than once", rr.Rank)
		}
		seen[rr.Rank] = true
		if c.Size >= 0 && rr.Size != c.Size {
			return fmt.Errorf("rank %d computed size %d, want %d", rr.Rank, rr.Size, c.Size)
		}
	}

	if c.Ranks > 0 {
		if len(seen) != c.Ranks {
			return fmt.Errorf("%d ranks reported, want %d", len(seen), c.Ranks)
		}
		for rank := 0; rank < c.Ranks; rank++ {
			if !seen[rank] {
				return fmt.Errorf("rank %d missing", rank)
			}
		}
	}
	return nil
}

// SortedRanks returns the rank results ordered by rank.
func (r *Report) SortedRanks() []RankResult {
	out := append([]RankResult(nil), r.Ranks...)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
