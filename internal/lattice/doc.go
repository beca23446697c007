// Package lattice implements a fixed-topology mass-spring string.
//
// A [String] is a linear chain of point masses ([Node]) joined by springs to
// their neighbours and to two immovable virtual anchors at the ends. It is
// advanced one fixed timestep per audio sample with semi-implicit Euler:
//
//   - [String.Step]: accumulate spring forces into every velocity from the
//     pre-step displacement field, then move every node
//   - [String.Sample]: read the displacement at the pickup (index N/2)
//   - [String.Pluck]: overwrite the field with a triangular displacement
//
// # Thread Safety
//
// String is NOT thread-safe. Step, Sample and Pluck belong to the single
// goroutine that renders audio. Control-rate callers hand excitations over
// through a [PluckSlot], which the rendering goroutine claims at the start of
// each step cycle:
//
//	var slot lattice.PluckSlot
//	_ = slot.Post(lattice.PluckRequest{Position: 0.3, Strength: 0.01}) // UI goroutine
//
//	if req, ok := slot.Claim(); ok { // audio goroutine
//	    s.Pluck(req.Position, req.Strength)
//	}
//	s.Step(dt)
//	out := s.Sample()
package lattice
