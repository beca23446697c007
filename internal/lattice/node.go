package lattice

// Node is a point mass with a scalar lateral displacement and velocity.
type Node struct {
	Velocity     float64
	Displacement float64
}

// IntegrateSpringForce accumulates into the velocity the acceleration caused
// by a spring of stiffness k whose other end sits at otherEnd. Displacement is
// left untouched. mass is the node mass, held once by the owning String.
func (n *Node) IntegrateSpringForce(k, mass, otherEnd, dt float64) {
	x := otherEnd - n.Displacement
	f := x * k
	a := f / mass
	n.Velocity += a * dt
}

// UpdateDisplacement moves the node by its current velocity.
func (n *Node) UpdateDisplacement(dt float64) {
	n.Displacement += n.Velocity * dt
}
