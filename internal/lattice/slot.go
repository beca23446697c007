package lattice

import "sync/atomic"

// PluckRequest is an excitation waiting to be applied by the rendering
// goroutine.
type PluckRequest struct {
	Position float64
	Strength float64
}

// PluckSlot hands pluck requests from control-rate goroutines to the single
// goroutine that owns a String. It holds at most one request; a newer Post
// replaces an unclaimed one. The zero value is an empty slot.
type PluckSlot struct {
	pending atomic.Pointer[PluckRequest]
	dropped atomic.Uint64
}

// Post validates req and leaves it for the next Claim.
func (p *PluckSlot) Post(req PluckRequest) error {
	if err := ValidatePluck(req.Position); err != nil {
		return err
	}
	if old := p.pending.Swap(&req); old != nil {
		p.dropped.Add(1)
	}
	return nil
}

// Claim takes the pending request, if any. It never blocks or allocates.
func (p *PluckSlot) Claim() (PluckRequest, bool) {
	if p.pending.Load() == nil {
		return PluckRequest{}, false
	}
	req := p.pending.Swap(nil)
	if req == nil {
		return PluckRequest{}, false
	}
	return *req, true
}

func (p *PluckSlot) Pending() bool { return p.pending.Load() != nil }

// Dropped counts requests replaced before they were claimed.
func (p *PluckSlot) Dropped() uint64 { return p.dropped.Load() }
