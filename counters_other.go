//go:build !linux

package saxpy

import (
	"fmt"
	"runtime"
)

func openCounters() (counterSource, error) {
	return nil, fmt.Errorf("hardware counters are not supported on %s", runtime.GOOS)
}
