package voice

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/stringsim/internal/lattice"
)

func newVoice(t testing.TB, n int) *Voice {
	t.Helper()
	s, err := lattice.NewDefault(n)
	if err != nil {
		t.Fatalf("new string failed: %v", err)
	}
	v, err := New(s, 44100)
	if err != nil {
		t.Fatalf("new voice failed: %v", err)
	}
	return v
}

func TestNew_Invalid(t *testing.T) {
	s, _ := lattice.NewDefault(4)
	tests := []struct {
		name string
		s    *lattice.String
		rate float64
	}{
		{"nil string", nil, 44100},
		{"zero rate", s, 0},
		{"negative rate", s, -1},
		{"nan rate", s, math.NaN()},
	}
	for _, tt := range tests {
		if _, err := New(tt.s, tt.rate); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestNext_AppliesPendingPluck(t *testing.T) {
	v := newVoice(t, 5)
	v.SetLevel(1)

	if x := v.Next(); x != 0 {
		t.Errorf("expected silence before pluck, got %f", x)
	}

	if err := v.Pluck(0.5, 1); err != nil {
		t.Fatalf("pluck failed: %v", err)
	}
	if v.Lattice().Sample() != 0 {
		t.Error("pluck applied before the audio goroutine claimed it")
	}

	x := v.Next()
	if x <= 0.99 || x > 1 {
		t.Errorf("expected pickup near 1 after pluck, got %f", x)
	}
	if v.Plucks() != 1 {
		t.Errorf("expected 1 pluck, got %d", v.Plucks())
	}
}

func TestPluck_RejectsBadPosition(t *testing.T) {
	v := newVoice(t, 5)
	if err := v.Pluck(-1, 1); !errors.Is(err, lattice.ErrPositionRange) {
		t.Errorf("expected ErrPositionRange, got %v", err)
	}
}

func TestProcess_LevelAndPeak(t *testing.T) {
	v := newVoice(t, 9)
	v.SetLevel(0.5)
	_ = v.Pluck(0.5, 1)

	out := make([]float32, 64)
	v.Process(out)

	if math.Abs(float64(out[0])-0.5) > 0.01 {
		t.Errorf("expected first sample near 0.5, got %f", out[0])
	}
	if v.Peak() < 0.49 || v.Peak() > 0.5 {
		t.Errorf("expected peak near 0.5, got %f", v.Peak())
	}
	if v.Samples() != 64 {
		t.Errorf("expected 64 samples, got %d", v.Samples())
	}
}

func TestProcessFloat64_MatchesLattice(t *testing.T) {
	v := newVoice(t, 16)
	v.SetLevel(1)
	ref, _ := lattice.NewDefault(16)

	_ = v.Pluck(0.2, 0.01)
	ref.Pluck(0.2, 0.01)

	out := make([]float64, 256)
	v.ProcessFloat64(out)
	for i, x := range out {
		ref.Step(v.Dt())
		if x != ref.Sample() {
			t.Fatalf("sample %d: expected %g, got %g", i, ref.Sample(), x)
		}
	}
}

func TestReset(t *testing.T) {
	v := newVoice(t, 8)
	_ = v.Pluck(0.3, 1)
	v.Next()

	v.Reset()
	if x := v.Next(); x != 0 {
		t.Errorf("expected silence after reset, got %f", x)
	}
}

func TestSnapshot(t *testing.T) {
	v := newVoice(t, 5)
	if snap := v.Snapshot(nil); len(snap) != 5 {
		t.Fatalf("expected 5 values, got %d", len(snap))
	}

	_ = v.Pluck(0, 1)
	v.Process(make([]float32, 1))

	snap := v.Snapshot(nil)
	if snap[0] <= 0 || snap[0] > 1 {
		t.Errorf("expected plucked endpoint in snapshot, got %f", snap[0])
	}
}

func TestProcess_ConcurrentPlucks(t *testing.T) {
	v := newVoice(t, 128)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = v.Pluck(float64(i%10)/10, 0.01)
			v.SetLevel(0.25)
		}
	}()
	go func() {
		defer wg.Done()
		buf := make([]float64, 0, 128)
		for {
			select {
			case <-stop:
				return
			default:
			}
			buf = v.Snapshot(buf)
			_ = v.Peak()
		}
	}()

	out := make([]float32, 256)
	for i := 0; i < 200; i++ {
		v.Process(out)
	}
	close(stop)
	wg.Wait()

	for _, x := range out {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			t.Fatal("non-finite output")
		}
	}
}

func TestProcess_DoesNotAllocate(t *testing.T) {
	v := newVoice(t, lattice.DefaultNodes)
	out := make([]float32, 512)
	v.Process(out)

	allocs := testing.AllocsPerRun(20, func() {
		v.Process(out)
	})
	if allocs != 0 {
		t.Errorf("expected no allocations, got %f", allocs)
	}
}
