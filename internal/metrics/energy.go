package metrics

import (
	"math"

	"github.com/san-kum/stringsim/internal/lattice"
)

// EnergyDrift tracks the largest relative deviation of the lattice energy
// from the energy seen at the first observation.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s *lattice.String, _ float64) {
	energy := s.Energy()
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Rebase restarts drift tracking from the next observation, used after a
// pluck injects new energy.
func (e *EnergyDrift) Rebase() { e.samples = 0 }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// PeakDisplacement is the largest absolute displacement of any node.
type PeakDisplacement struct {
	peak float64
}

func NewPeakDisplacement() *PeakDisplacement { return &PeakDisplacement{} }

func (p *PeakDisplacement) Name() string { return "peak_displacement" }

func (p *PeakDisplacement) Observe(s *lattice.String, _ float64) {
	for i := 0; i < s.Len(); i++ {
		if d := math.Abs(s.Node(i).Displacement); d > p.peak {
			p.peak = d
		}
	}
}

func (p *PeakDisplacement) Value() float64 { return p.peak }
func (p *PeakDisplacement) Reset()         { p.peak = 0 }

// RMS is the root mean square of the output signal.
type RMS struct {
	sumSq   float64
	samples int
}

func NewRMS() *RMS { return &RMS{} }

func (r *RMS) Name() string { return "rms" }

func (r *RMS) Observe(_ *lattice.String, sample float64) {
	r.sumSq += sample * sample
	r.samples++
}

func (r *RMS) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMS) Reset() {
	r.sumSq = 0
	r.samples = 0
}
