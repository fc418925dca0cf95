//go:build linux

package saxpy

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type perfEvent struct {
	name   string
	config uint64
}

var perfEvents = []perfEvent{
	{"cycles", unix.PERF_COUNT_HW_CPU_CYCLES},
	{"instructions", unix.PERF_COUNT_HW_INSTRUCTIONS},
	{"cache-misses", unix.PERF_COUNT_HW_CACHE_MISSES},
	{"branch-misses", unix.PERF_COUNT_HW_BRANCH_MISSES},
}

// perfCounters is one perf_event_open descriptor per event, counting user
// space only.
type perfCounters struct {
	fds []int
}

func openCounters() (counterSource, error) {
	pc := &perfCounters{}
	for _, ev := range perfEvents {
		attr := unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_HARDWARE,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			pc.close()
			return nil, fmt.Errorf("perf_event_open %s: %w", ev.name, err)
		}
		pc.fds = append(pc.fds, fd)
	}
	return pc, nil
}

func (pc *perfCounters) start() error {
	for i, fd := range pc.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			return fmt.Errorf("reset %s: %w", perfEvents[i].name, err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			return fmt.Errorf("enable %s: %w", perfEvents[i].name, err)
		}
	}
	return nil
}

func (pc *perfCounters) stop() (CounterSet, error) {
	var vals [4]uint64
	var buf [8]byte
	for i, fd := range pc.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			return CounterSet{}, fmt.Errorf("disable %s: %w", perfEvents[i].name, err)
		}
		n, err := unix.Read(fd, buf[:])
		if err != nil || n != len(buf) {
			return CounterSet{}, fmt.Errorf("read %s: %d bytes: %v", perfEvents[i].name, n, err)
		}
		vals[i] = binary.NativeEndian.Uint64(buf[:])
	}
	return CounterSet{
		Cycles:       vals[0],
		Instructions: vals[1],
		CacheMisses:  vals[2],
		BranchMisses: vals[3],
	}, nil
}

func (pc *perfCounters) close() error {
	var first error
	for _, fd := range pc.fds {
		if err := unix.Close(fd); err != nil && first == nil {
			first = err
		}
	}
	pc.fds = nil
	return first
}
