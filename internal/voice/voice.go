// Package voice drives a lattice string at audio rate.
//
// A Voice owns one [lattice.String]. Its Next, Process and ProcessFloat64
// methods belong to the audio goroutine; Pluck, Snapshot, Peak, SetLevel and
// Reset may be called from any goroutine.
package voice

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/san-kum/stringsim/internal/lattice"
)

const DefaultLevel = 0.5

// Voice renders one plucked string.
type Voice struct {
	str  *lattice.String
	dt   float64
	slot lattice.PluckSlot

	level atomic.Uint64 // float64 bits
	peak  atomic.Uint64 // float64 bits, decays per block
	reset atomic.Bool

	plucks  atomic.Uint64
	samples atomic.Uint64

	scopeMu sync.Mutex
	scope   []float64
}

// New wraps s for rendering at sampleRate.
func New(s *lattice.String, sampleRate float64) (*Voice, error) {
	if s == nil {
		return nil, fmt.Errorf("voice: nil string")
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("voice: invalid sample rate %g", sampleRate)
	}
	v := &Voice{
		str:   s,
		dt:    1 / sampleRate,
		scope: make([]float64, s.Len()),
	}
	v.SetLevel(DefaultLevel)
	return v, nil
}

func (v *Voice) Dt() float64 { return v.dt }

func (v *Voice) Len() int { return v.str.Len() }

// Plucks returns how many plucks have been applied to the string.
func (v *Voice) Plucks() uint64 { return v.plucks.Load() }

// Samples returns how many samples have been rendered.
func (v *Voice) Samples() uint64 { return v.samples.Load() }

// Dropped returns how many plucks were replaced before the audio goroutine
// picked them up.
func (v *Voice) Dropped() uint64 { return v.slot.Dropped() }

func (v *Voice) Level() float64 { return math.Float64frombits(v.level.Load()) }

func (v *Voice) SetLevel(level float64) {
	v.level.Store(math.Float64bits(level))
}

// Peak returns the largest absolute output sample of the recent blocks.
func (v *Voice) Peak() float64 { return math.Float64frombits(v.peak.Load()) }

// Pluck queues an excitation for the next sample. It is safe to call from
// any goroutine.
func (v *Voice) Pluck(position, strength float64) error {
	return v.slot.Post(lattice.PluckRequest{Position: position, Strength: strength})
}

// Reset asks the audio goroutine to silence the string before its next
// sample.
func (v *Voice) Reset() { v.reset.Store(true) }

// Next claims at most one pending pluck, advances the string by one sample
// and returns the scaled pickup value.
func (v *Voice) Next() float64 {
	if v.reset.Load() && v.reset.CompareAndSwap(true, false) {
		v.str.Reset()
	}
	if req, ok := v.slot.Claim(); ok {
		v.str.Pluck(req.Position, req.Strength)
		v.plucks.Add(1)
	}
	v.str.Step(v.dt)
	return v.str.Sample() * v.Level()
}

// Process fills out with consecutive samples.
func (v *Voice) Process(out []float32) {
	peak := 0.0
	for i := range out {
		x := v.Next()
		peak = math.Max(peak, math.Abs(x))
		out[i] = float32(x)
	}
	v.finishBlock(len(out), peak)
}

// ProcessFloat64 is Process for float64 buffers.
func (v *Voice) ProcessFloat64(out []float64) {
	peak := 0.0
	for i := range out {
		x := v.Next()
		peak = math.Max(peak, math.Abs(x))
		out[i] = x
	}
	v.finishBlock(len(out), peak)
}

func (v *Voice) finishBlock(n int, peak float64) {
	v.samples.Add(uint64(n))

	old := math.Float64frombits(v.peak.Load())
	v.peak.Store(math.Float64bits(math.Max(peak, old*0.9)))

	// skip the scope when a reader holds it
	if v.scopeMu.TryLock() {
		v.scope = v.str.Displacements(v.scope)
		v.scopeMu.Unlock()
	}
}

// Snapshot copies the most recently published displacement field into dst.
func (v *Voice) Snapshot(dst []float64) []float64 {
	v.scopeMu.Lock()
	defer v.scopeMu.Unlock()
	if cap(dst) < len(v.scope) {
		dst = make([]float64, len(v.scope))
	}
	dst = dst[:len(v.scope)]
	copy(dst, v.scope)
	return dst
}

// Energy reports the string energy. Only the audio goroutine, or a caller
// that has stopped it, may use it.
func (v *Voice) Energy() float64 { return v.str.Energy() }

// Lattice exposes the underlying string to the goroutine that renders it.
func (v *Voice) Lattice() *lattice.String { return v.str }
