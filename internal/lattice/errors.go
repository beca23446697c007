package lattice

import "errors"

// Domain errors for lattice construction and excitation.
var (
	// ErrPositionRange indicates a pluck position outside [0, 1].
	ErrPositionRange = errors.New("lattice: pluck position outside [0, 1]")

	// ErrParameterBounds indicates a node count, mass or spring constant that
	// cannot describe a lattice.
	ErrParameterBounds = errors.New("lattice: parameter out of valid bounds")
)
