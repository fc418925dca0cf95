package saxpy

import (
	"log/slog"
	"sync"
)

// CounterSet holds hardware counter totals for one measured interval.
type CounterSet struct {
	Cycles       uint64
	Instructions uint64
	CacheMisses  uint64
	BranchMisses uint64
}

// IPC returns instructions per cycle, or 0 when no cycles were counted.
func (c CounterSet) IPC() float64 {
	if c.Cycles == 0 {
		return 0
	}
	return float64(c.Instructions) / float64(c.Cycles)
}

// counterSource is an open group of hardware counters.
type counterSource interface {
	start() error
	stop() (CounterSet, error)
	close() error
}

// CounterObserver forwards every event to an inner Observer and reads
// hardware counters across one region. The totals of each interval are
// added to the inner observer's metadata as "<region>.cycles",
// "<region>.instructions" and so on.
//
// Counts cover the OS thread that opened the observer and the threads
// created after it, so they are most precise for the serial backend.
type CounterObserver struct {
	Observer
	region string
	logger *slog.Logger

	mu   sync.Mutex
	src  counterSource
	last CounterSet
}

// NewCounterObserver opens the hardware counters and wraps inner. It fails
// with a device error where counters are unsupported or not permitted.
func NewCounterObserver(inner Observer, region string, logger *slog.Logger) (*CounterObserver, error) {
	src, err := openCounters()
	if err != nil {
		return nil, NewDeviceError("NewCounterObserver", "hardware counters unavailable", err)
	}
	return newCounterObserver(inner, region, src, logger), nil
}

func newCounterObserver(inner Observer, region string, src counterSource, logger *slog.Logger) *CounterObserver {
	if inner == nil {
		inner = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CounterObserver{Observer: inner, region: region, src: src, logger: logger}
}

// Begin implements Observer.
func (o *CounterObserver) Begin(region string) {
	o.Observer.Begin(region)
	if region != o.region {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.src.start(); err != nil {
		o.logger.Warn("starting hardware counters failed", "region", region, "err", err)
	}
}

// End implements Observer.
func (o *CounterObserver) End(region string) {
	if region == o.region {
		o.record(region)
	}
	o.Observer.End(region)
}

func (o *CounterObserver) record(region string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cs, err := o.src.stop()
	if err != nil {
		o.logger.Warn("reading hardware counters failed", "region", region, "err", err)
		return
	}
	o.last = cs
	o.Observer.SetMetadata(region+".cycles", cs.Cycles)
	o.Observer.SetMetadata(region+".instructions", cs.Instructions)
	o.Observer.SetMetadata(region+".cache_misses", cs.CacheMisses)
	o.Observer.SetMetadata(region+".branch_misses", cs.BranchMisses)
	o.Observer.SetMetadata(region+".ipc", cs.IPC())
	o.logger.Debug("hardware counters", "region", region,
		"cycles", cs.Cycles, "instructions", cs.Instructions, "ipc", cs.IPC())
}

// Last returns the counters of the most recent completed interval.
func (o *CounterObserver) Last() CounterSet {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Close releases the counters.
func (o *CounterObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.src.close()
}
