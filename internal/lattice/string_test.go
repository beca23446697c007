package lattice

import (
	"errors"
	"math"
	"testing"
)

func mustNew(t testing.TB, n int, k, m float64) *String {
	t.Helper()
	s, err := New(n, k, m)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return s
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		n    int
		k, m float64
	}{
		{"zero nodes", 0, 1, 1},
		{"negative nodes", -3, 1, 1},
		{"zero mass", 4, 1, 0},
		{"negative mass", 4, 1, -0.1},
		{"nan mass", 4, 1, math.NaN()},
		{"negative k", 4, -1, 1},
		{"inf k", 4, math.Inf(1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.n, tt.k, tt.m)
			if !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestNew_AtRest(t *testing.T) {
	s := mustNew(t, 7, DefaultSpringConstant, DefaultMass)
	if s.Len() != 7 {
		t.Errorf("expected 7 nodes, got %d", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		if n := s.Node(i); n.Velocity != 0 || n.Displacement != 0 {
			t.Errorf("node %d not at rest: %+v", i, n)
		}
	}
}

func TestNodeIntegrateSpringForce(t *testing.T) {
	n := Node{Velocity: 1, Displacement: 0.5}
	n.IntegrateSpringForce(10, 2, 1.5, 0.1)

	// x = 1, F = 10, a = 5, dv = 0.5
	if math.Abs(n.Velocity-1.5) > 1e-12 {
		t.Errorf("expected velocity 1.5, got %f", n.Velocity)
	}
	if n.Displacement != 0.5 {
		t.Errorf("displacement changed: %f", n.Displacement)
	}

	n.UpdateDisplacement(0.1)
	if math.Abs(n.Displacement-0.65) > 1e-12 {
		t.Errorf("expected displacement 0.65, got %f", n.Displacement)
	}
}

func TestPluck_Triangle(t *testing.T) {
	s := mustNew(t, 5, 100000, 0.1)
	s.Pluck(0.5, 1.0)

	expected := []float64{0, 0.5, 1, 2.0 / 3, 1.0 / 3}
	for i, want := range expected {
		got := s.Node(i)
		if math.Abs(got.Displacement-want) > 1e-12 {
			t.Errorf("node %d: expected displacement %f, got %f", i, want, got.Displacement)
		}
		if got.Velocity != 0 {
			t.Errorf("node %d: expected zero velocity, got %f", i, got.Velocity)
		}
	}
}

func TestPluck_Verbatim(t *testing.T) {
	s := mustNew(t, 5, 100000, 0.1)
	s.SetShape(ShapeVerbatim)
	s.Pluck(0.5, 1.0)

	expected := []float64{1, 2, 1, 2.0 / 3, 1.0 / 3}
	for i, want := range expected {
		if got := s.Node(i).Displacement; math.Abs(got-want) > 1e-12 {
			t.Errorf("node %d: expected displacement %f, got %f", i, want, got)
		}
	}
}

func TestPluck_StartIndexZero(t *testing.T) {
	for _, shape := range []PluckShape{ShapeTriangle, ShapeVerbatim} {
		s := mustNew(t, 4, 100000, 0.1)
		s.SetShape(shape)
		s.Pluck(0, 2)

		expected := []float64{2, 1.5, 1, 0.5}
		for i, want := range expected {
			if got := s.Node(i).Displacement; math.Abs(got-want) > 1e-12 {
				t.Errorf("%s node %d: expected %f, got %f", shape, i, want, got)
			}
		}
	}
}

func TestPluck_EndOfString(t *testing.T) {
	s := mustNew(t, 5, 100000, 0.1)
	s.Pluck(1, 1)

	// start = 4, only the last node reaches full strength
	expected := []float64{0, 0.25, 0.5, 0.75, 1}
	for i, want := range expected {
		if got := s.Node(i).Displacement; math.Abs(got-want) > 1e-12 {
			t.Errorf("node %d: expected %f, got %f", i, want, got)
		}
	}
}

func TestPluck_ZeroesVelocity(t *testing.T) {
	s := mustNew(t, 9, 100000, 0.1)
	s.Pluck(0.3, 0.5)
	for i := 0; i < 50; i++ {
		s.Step(1e-5)
	}

	s.Pluck(0.7, -0.2)
	for i := 0; i < s.Len(); i++ {
		if v := s.Node(i).Velocity; v != 0 {
			t.Errorf("node %d: expected zero velocity after pluck, got %f", i, v)
		}
	}
	if got := s.Node(int(float64(s.Len()-1) * 0.7)).Displacement; got != -0.2 {
		t.Errorf("expected -0.2 at pluck point, got %f", got)
	}
}

func TestPluck_PanicsOutOfRange(t *testing.T) {
	for _, pos := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		func() {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrPositionRange) {
					t.Errorf("position %v: expected ErrPositionRange panic, got %v", pos, r)
				}
			}()
			s := mustNew(t, 5, 100000, 0.1)
			s.Pluck(pos, 1)
		}()
	}
}

func TestStep_ConcreteScenario(t *testing.T) {
	s := mustNew(t, 5, 100000, 0.1)
	s.Pluck(0.5, 1.0)
	s.Step(1e-6)

	for i := 0; i < s.Len(); i++ {
		n := s.Node(i)
		if math.IsNaN(n.Displacement) || math.IsInf(n.Displacement, 0) ||
			math.IsNaN(n.Velocity) || math.IsInf(n.Velocity, 0) {
			t.Fatalf("node %d not finite: %+v", i, n)
		}
	}

	// neighbours at 0.5 and 2/3 pull the peak down
	dv := 100000.0 / 0.1 * ((0.5 - 1) + (2.0/3 - 1)) * 1e-6
	want := 1 + dv*1e-6
	if got := s.Sample(); math.Abs(got-want) > 1e-15 {
		t.Errorf("expected sample %.15f, got %.15f", want, got)
	}
	if moved := math.Abs(1 - s.Sample()); moved == 0 || moved > 1e-5 {
		t.Errorf("expected small non-zero movement, got %g", moved)
	}
}

func TestStep_UsesPreStepField(t *testing.T) {
	const k, m, dt = 1000.0, 0.5, 1e-3
	s := mustNew(t, 6, k, m)
	s.Pluck(0.4, 0.3)
	for i := 0; i < 7; i++ {
		s.Step(dt)
	}

	before := make([]Node, s.Len())
	for i := range before {
		before[i] = s.Node(i)
	}
	s.Step(dt)

	disp := func(i int) float64 {
		if i < 0 || i >= len(before) {
			return 0
		}
		return before[i].Displacement
	}
	for i := range before {
		acc := k / m * ((disp(i-1) - disp(i)) + (disp(i+1) - disp(i)))
		v := before[i].Velocity + acc*dt
		x := before[i].Displacement + v*dt
		got := s.Node(i)
		if math.Abs(got.Velocity-v) > 1e-12 || math.Abs(got.Displacement-x) > 1e-12 {
			t.Errorf("node %d: expected (v=%g, x=%g), got (v=%g, x=%g)", i, v, x, got.Velocity, got.Displacement)
		}
	}
}

func TestStep_SingleNodeDoubleAnchor(t *testing.T) {
	s := mustNew(t, 1, 100, 1)
	s.Pluck(0.5, 1)
	s.Step(0.01)

	// each anchor contributes -k*x/m*dt = -1
	if v := s.Node(0).Velocity; math.Abs(v+2) > 1e-12 {
		t.Errorf("expected velocity -2 from two anchor springs, got %f", v)
	}
	if x := s.Sample(); math.Abs(x-0.98) > 1e-12 {
		t.Errorf("expected displacement 0.98, got %f", x)
	}
}

func TestStep_RestIsFixedPoint(t *testing.T) {
	for _, n := range []int{1, 2, 3, 16} {
		s := mustNew(t, n, DefaultSpringConstant, DefaultMass)
		for i := 0; i < 1000; i++ {
			s.Step(1.0 / 44100)
		}
		for i := 0; i < n; i++ {
			if node := s.Node(i); node.Displacement != 0 || node.Velocity != 0 {
				t.Errorf("n=%d node %d moved: %+v", n, i, node)
			}
		}
	}
}

func TestSample_PickupIndex(t *testing.T) {
	tests := []struct {
		n      int
		pickup int
	}{
		{1, 0}, {2, 1}, {5, 2}, {6, 3}, {1600, 800},
	}

	for _, tt := range tests {
		s := mustNew(t, tt.n, 1, 1)
		if s.PickupIndex() != tt.pickup {
			t.Errorf("n=%d: expected pickup %d, got %d", tt.n, tt.pickup, s.PickupIndex())
		}
		s.nodes[tt.pickup].Displacement = 0.25
		if s.Sample() != 0.25 || s.Sample() != 0.25 {
			t.Errorf("n=%d: sample did not read pickup node", tt.n)
		}
	}
}

func TestDisplacements_ReusesBuffer(t *testing.T) {
	s := mustNew(t, 4, 1, 1)
	s.Pluck(0, 1)

	buf := make([]float64, 0, 8)
	out := s.Displacements(buf)
	if len(out) != 4 || &out[0] != &buf[:1][0] {
		t.Error("expected displacements written into caller buffer")
	}
	if out[0] != 1 {
		t.Errorf("expected 1 at node 0, got %f", out[0])
	}

	s.Reset()
	out = s.Displacements(out)
	for i, d := range out {
		if d != 0 {
			t.Errorf("node %d: expected 0 after reset, got %f", i, d)
		}
	}
}

func TestEnergy(t *testing.T) {
	s := mustNew(t, 3, 10, 2)
	if e := s.Energy(); e != 0 {
		t.Errorf("expected zero energy at rest, got %f", e)
	}

	s.nodes[1].Displacement = 1
	// two springs of extension 1 around the middle node
	if e := s.Energy(); math.Abs(e-10) > 1e-12 {
		t.Errorf("expected energy 10, got %f", e)
	}

	s.nodes[1].Velocity = 3
	if e := s.Energy(); math.Abs(e-19) > 1e-12 {
		t.Errorf("expected energy 19, got %f", e)
	}
}

func TestStableTimestep(t *testing.T) {
	dt := StableTimestep(DefaultSpringConstant, DefaultMass)
	if math.Abs(dt-1e-3) > 1e-12 {
		t.Errorf("expected 1e-3, got %g", dt)
	}
	if !math.IsInf(StableTimestep(0, 1), 1) {
		t.Error("expected unbounded timestep without springs")
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name    string
		want    PluckShape
		wantErr bool
	}{
		{"", ShapeTriangle, false},
		{"triangle", ShapeTriangle, false},
		{"verbatim", ShapeVerbatim, false},
		{"square", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseShape(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error %v", tt.name, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}
