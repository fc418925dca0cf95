package saxpy

import (
	"context"
	"errors"
	"testing"
)

// brokenBackend writes a wrong value at one index.
type brokenBackend struct {
	*SerialBackend
	at int
}

func (b brokenBackend) Saxpy(ctx context.Context, r, x, y []float32) error {
	if err := b.SerialBackend.Saxpy(ctx, r, x, y); err != nil {
		return err
	}
	if b.at < len(r) {
		r[b.at] = -1
	}
	return nil
}

// recordingObserver logs every event in order.
type recordingObserver struct {
	events   []string
	metadata map[string]any
}

func (o *recordingObserver) SetMetadata(key string, value any) {
	if o.metadata == nil {
		o.metadata = make(map[string]any)
	}
	o.metadata[key] = value
}
func (o *recordingObserver) Begin(region string) { o.events = append(o.events, "begin:"+region) }
func (o *recordingObserver) End(region string)   { o.events = append(o.events, "end:"+region) }

func TestDriverRun(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDriver(NewSerialBackend(), WithObserver(obs), WithLogger(discardLogger()), WithVerify(true))

	x, y := d.Setup(4)
	r, err := d.Run(context.Background(), x, y)
	if err != nil {
		t.Fatal(err)
	}
	if len(r) != 4 || r[3] != Saxpy(3, 9) {
		t.Errorf("r = %v", r)
	}

	want := []string{"begin:setup", "end:setup", "begin:kernel", "end:kernel"}
	if len(obs.events) != len(want) {
		t.Fatalf("events = %v, want %v", obs.events, want)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, obs.events[i], want[i])
		}
	}
}

func TestDriverVerifyFailure(t *testing.T) {
	backend := brokenBackend{SerialBackend: NewSerialBackend(), at: 2}
	x, y := FillInputs(8)

	// without verification the wrong result is returned as is
	r, err := NewDriver(backend).Run(context.Background(), x, y)
	if err != nil || r[2] != -1 {
		t.Fatalf("unverified run = %v, %v", r, err)
	}

	_, err = NewDriver(backend, WithVerify(true), WithLogger(discardLogger())).Run(context.Background(), x, y)
	if !IsVerificationError(err) {
		t.Errorf("verified run err = %v, want verification error", err)
	}
}

func TestDriverBackendError(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDriver(NewSerialBackend(), WithObserver(obs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := FillInputs(16)
	if _, err := d.Run(ctx, x, y); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	// the kernel region is closed on failure too
	if n := len(obs.events); n != 2 || obs.events[n-1] != "end:kernel" {
		t.Errorf("events = %v", obs.events)
	}

	if _, err := d.Run(context.Background(), x, y[:3]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("mismatched inputs err = %v", err)
	}
}

func TestDriverNilOptions(t *testing.T) {
	d := NewDriver(NewSerialBackend(), WithObserver(nil), WithLogger(nil))
	if d.observer == nil || d.logger == nil {
		t.Fatal("nil options replaced the defaults")
	}
	if d.Backend().Name() != "serial" {
		t.Errorf("Backend() = %s", d.Backend().Name())
	}
}

func TestAnnotateRun(t *testing.T) {
	obs := &recordingObserver{}
	AnnotateRun(obs, "grid", 1200, 1, 4)

	for key, want := range map[string]any{"backend": "grid", "n": 1200, "mpi.rank": 1, "mpi.size": 4} {
		if got := obs.metadata[key]; got != want {
			t.Errorf("metadata[%s] = %v, want %v", key, got, want)
		}
	}
	for _, key := range []string{"compiler.version", "goarch", "cpu.features", "saxpy.version"} {
		if _, ok := obs.metadata[key]; !ok {
			t.Errorf("metadata %s missing", key)
		}
	}
}
