// Command saxpy-fom summarizes the figures of merit in saxpy output files
// and exits non-zero when a run did not succeed.
//
// Usage:
//
//	saxpy-fom [-ranks K] [-n N] file...
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LynnColeArt/saxpy/internal/fom"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("saxpy-fom", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ranks := fs.Int("ranks", 0, "expected number of ranks (0: any)")
	size := fs.Int("n", -1, "expected problem size on every rank (-1: any)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Usage: saxpy-fom [-ranks K] [-n N] file...")
		return 2
	}

	criteria := fom.Criteria{Ranks: *ranks, Size: *size}
	failed := 0
	for _, path := range fs.Args() {
		if err := summarize(path, criteria, stdout); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			failed++
		}
	}

	fmt.Fprintln(stdout, strings.Repeat("=", 40))
	fmt.Fprintf(stdout, "Total: %d | Passed: %d | Failed: %d\n",
		fs.NArg(), fs.NArg()-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func summarize(path string, criteria fom.Criteria, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rep, err := fom.Parse(f)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", path)
	fmt.Fprintf(w, "%-10s %12s\n", "Rank", "Size")
	fmt.Fprintln(w, strings.Repeat("-", 23))
	for _, rr := range rep.SortedRanks() {
		fmt.Fprintf(w, "%-10d %12d\n", rr.Rank, rr.Size)
	}

	if err := rep.Check(criteria); err != nil {
		fmt.Fprintf(w, "success: FAIL\n")
		return err
	}
	fmt.Fprintf(w, "success: PASS\n")
	return nil
}
