package metrics

import "github.com/san-kum/stringsim/internal/lattice"

// Metric accumulates a scalar over a render. Observe is called once per
// output sample with the string after its step and the sample written.
type Metric interface {
	Name() string
	Observe(s *lattice.String, sample float64)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every stored render.
func Defaults(threshold float64) []Metric {
	return []Metric{
		NewPeakDisplacement(),
		NewEnergyDrift(),
		NewStability(threshold),
		NewRMS(),
	}
}
