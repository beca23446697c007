package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrum is a one-sided magnitude spectrum.
type Spectrum struct {
	Magnitude []float64
	BinHz     float64
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// PowerSpectrum windows samples, zero pads them to a power of two and
// returns the magnitudes of the non-negative frequency bins.
func PowerSpectrum(samples []float64, sampleRate float64) Spectrum {
	if len(samples) == 0 {
		return Spectrum{}
	}
	n := nextPow2(len(samples))
	padded := make([]float64, n)
	copy(padded, samples)
	window.Apply(padded[:len(samples)], window.Hann)

	bins := fft.FFTReal(padded)
	mag := make([]float64, n/2+1)
	for i := range mag {
		mag[i] = cmplx.Abs(bins[i])
	}
	return Spectrum{Magnitude: mag, BinHz: sampleRate / float64(n)}
}

// Peak is a spectral maximum.
type Peak struct {
	Frequency float64
	Magnitude float64
}

// DominantFrequency returns the frequency of the strongest bin above DC,
// refined by fitting a parabola through it and its neighbours. It returns 0
// for silent or too-short signals.
func DominantFrequency(samples []float64, sampleRate float64) float64 {
	peaks := Harmonics(samples, sampleRate, 1)
	if len(peaks) == 0 {
		return 0
	}
	return peaks[0].Frequency
}

// Harmonics returns up to count local maxima of the spectrum, strongest
// first.
func Harmonics(samples []float64, sampleRate float64, count int) []Peak {
	spec := PowerSpectrum(samples, sampleRate)
	m := spec.Magnitude
	if len(m) < 3 {
		return nil
	}

	var peaks []Peak
	for i := 1; i < len(m)-1; i++ {
		if m[i] <= m[i-1] || m[i] < m[i+1] || m[i] == 0 {
			continue
		}
		peaks = append(peaks, Peak{
			Frequency: (float64(i) + interpolate(m[i-1], m[i], m[i+1])) * spec.BinHz,
			Magnitude: m[i],
		})
	}
	sort.Slice(peaks, func(a, b int) bool { return peaks[a].Magnitude > peaks[b].Magnitude })
	if len(peaks) > count {
		peaks = peaks[:count]
	}
	return peaks
}

// interpolate returns the offset of the vertex of the parabola through
// three equally spaced points, relative to the middle one.
func interpolate(a, b, c float64) float64 {
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	d := 0.5 * (a - c) / den
	return math.Max(-0.5, math.Min(0.5, d))
}
