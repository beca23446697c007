package lattice

import (
	"fmt"
	"math"
)

// PluckShape selects how Pluck fills the nodes before the pluck point.
type PluckShape int

const (
	// ShapeTriangle ramps linearly from 0 at node 0 to full strength at the
	// pluck point, t = i/start.
	ShapeTriangle PluckShape = iota
	// ShapeVerbatim uses t = start/(start-i), which starts at full strength
	// at node 0 and overshoots towards the pluck point. Kept for parity with
	// recordings made with that formula.
	ShapeVerbatim
)

func (p PluckShape) String() string {
	switch p {
	case ShapeTriangle:
		return "triangle"
	case ShapeVerbatim:
		return "verbatim"
	default:
		return fmt.Sprintf("PluckShape(%d)", int(p))
	}
}

// ParseShape maps a shape name to its PluckShape.
func ParseShape(name string) (PluckShape, error) {
	switch name {
	case "", "triangle":
		return ShapeTriangle, nil
	case "verbatim":
		return ShapeVerbatim, nil
	}
	return 0, fmt.Errorf("unknown pluck shape: %s", name)
}

func (s *String) Shape() PluckShape     { return s.shape }
func (s *String) SetShape(p PluckShape) { s.shape = p }

// ValidatePluck reports whether position is a usable pluck position.
func ValidatePluck(position float64) error {
	if math.IsNaN(position) || position < 0 || position > 1 {
		return fmt.Errorf("%w: %g", ErrPositionRange, position)
	}
	return nil
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Pluck sets a triangular displacement peaking at strength at the node
// nearest position along the string and stops every node. position must lie
// in [0, 1]; anything else is a caller bug and panics.
func (s *String) Pluck(position, strength float64) {
	if err := ValidatePluck(position); err != nil {
		panic(err)
	}
	n := len(s.nodes)
	start := int(float64(n-1) * position)

	for i := start; i < n; i++ {
		t := float64(n-i) / float64(n-start)
		s.nodes[i].Displacement = lerp(0, strength, t)
		s.nodes[i].Velocity = 0
	}
	for i := 0; i < start; i++ {
		var t float64
		if s.shape == ShapeVerbatim {
			t = float64(start) / float64(start-i)
		} else {
			t = float64(i) / float64(start)
		}
		s.nodes[i].Displacement = lerp(0, strength, t)
		s.nodes[i].Velocity = 0
	}
}
