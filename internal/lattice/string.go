package lattice

import (
	"fmt"
	"math"
)

const (
	DefaultNodes          = 1600
	DefaultSpringConstant = 100000.0
	DefaultMass           = 0.1
)

// String is a chain of nodes between two fixed anchors at displacement 0.
// The node count, spring constant and mass never change after New.
type String struct {
	nodes []Node
	k     float64
	mass  float64
	shape PluckShape
}

// New returns a string of n nodes at rest.
func New(n int, springConstant, mass float64) (*String, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: node count %d", ErrParameterBounds, n)
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: mass %g", ErrParameterBounds, mass)
	}
	if !(springConstant >= 0) || math.IsInf(springConstant, 0) {
		return nil, fmt.Errorf("%w: spring constant %g", ErrParameterBounds, springConstant)
	}
	return &String{
		nodes: make([]Node, n),
		k:     springConstant,
		mass:  mass,
		shape: ShapeTriangle,
	}, nil
}

// NewDefault returns a string of n nodes with the default stiffness and mass.
func NewDefault(n int) (*String, error) {
	return New(n, DefaultSpringConstant, DefaultMass)
}

func (s *String) Len() int                { return len(s.nodes) }
func (s *String) SpringConstant() float64 { return s.k }
func (s *String) Mass() float64           { return s.mass }
func (s *String) PickupIndex() int        { return len(s.nodes) / 2 }

// Node returns a copy of node i.
func (s *String) Node(i int) Node { return s.nodes[i] }

// Displacements copies the displacement field into dst, growing it only when
// its capacity is short.
func (s *String) Displacements(dst []float64) []float64 {
	if cap(dst) < len(s.nodes) {
		dst = make([]float64, len(s.nodes))
	}
	dst = dst[:len(s.nodes)]
	for i := range s.nodes {
		dst[i] = s.nodes[i].Displacement
	}
	return dst
}

// Reset returns every node to rest.
func (s *String) Reset() {
	clear(s.nodes)
}

// Step advances the lattice by dt. All velocities are updated from the
// displacement field as it was on entry before any node moves.
//
// With a single node, node 0 is both first and last and is pulled by each
// anchor separately, so it feels twice the anchor stiffness.
func (s *String) Step(dt float64) {
	n := len(s.nodes)
	k, m := s.k, s.mass
	nodes := s.nodes

	nodes[0].IntegrateSpringForce(k, m, 0, dt)
	if n > 1 {
		nodes[0].IntegrateSpringForce(k, m, nodes[1].Displacement, dt)
	}

	for i := 1; i < n-1; i++ {
		nodes[i].IntegrateSpringForce(k, m, nodes[i-1].Displacement, dt)
		nodes[i].IntegrateSpringForce(k, m, nodes[i+1].Displacement, dt)
	}

	if n > 1 {
		nodes[n-1].IntegrateSpringForce(k, m, nodes[n-2].Displacement, dt)
	}
	nodes[n-1].IntegrateSpringForce(k, m, 0, dt)

	for i := range nodes {
		nodes[i].UpdateDisplacement(dt)
	}
}

// Sample returns the displacement at the pickup, the node at index N/2.
func (s *String) Sample() float64 {
	return s.nodes[len(s.nodes)/2].Displacement
}

// Energy returns kinetic plus spring potential energy, counting both anchor
// springs.
func (s *String) Energy() float64 {
	n := len(s.nodes)
	var ke, pe float64
	for i := range s.nodes {
		v := s.nodes[i].Velocity
		ke += 0.5 * s.mass * v * v
	}
	first, last := s.nodes[0].Displacement, s.nodes[n-1].Displacement
	pe += 0.5 * s.k * (first*first + last*last)
	for i := 0; i < n-1; i++ {
		d := s.nodes[i+1].Displacement - s.nodes[i].Displacement
		pe += 0.5 * s.k * d * d
	}
	return ke + pe
}

// StableTimestep returns the largest dt for which Step stays bounded on a
// lattice with spring constant k and node mass m. The highest mode of the
// chain oscillates at 2*sqrt(k/m) and semi-implicit Euler needs omega*dt < 2.
func StableTimestep(k, m float64) float64 {
	if k <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(m / k)
}
