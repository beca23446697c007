package metrics

import (
	"math"

	"github.com/san-kum/stringsim/internal/lattice"
)

// Stability scores how well the pickup stayed bounded. A lattice that
// overflows to Inf or NaN never recovers, so any non-finite sample scores
// 0. Otherwise the score is the fraction of samples within threshold.
type Stability struct {
	threshold float64
	samples   int
	over      int
	nonFinite int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(_ *lattice.String, sample float64) {
	s.samples++
	switch {
	case math.IsNaN(sample) || math.IsInf(sample, 0):
		s.nonFinite++
	case math.Abs(sample) > s.threshold:
		s.over++
	}
}

func (s *Stability) Value() float64 {
	if s.nonFinite > 0 {
		return 0
	}
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.over)/float64(s.samples)
}

// NonFinite counts the samples that were Inf or NaN.
func (s *Stability) NonFinite() int { return s.nonFinite }

func (s *Stability) Reset() { *s = Stability{threshold: s.threshold} }
