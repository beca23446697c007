package audio

import (
	"sync"
	"time"

	"github.com/san-kum/stringsim/internal/voice"
)

// Headless renders on a wall-clock ticker and discards the output. It keeps
// the voice running at real-time pace where no sound device exists.
type Headless struct {
	voice *voice.Voice
	opts  Options

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func NewHeadless(v *voice.Voice, opts Options) *Headless {
	return &Headless{voice: v, opts: opts}
}

func (h *Headless) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return nil
	}
	h.done = make(chan struct{})

	period := time.Duration(float64(h.opts.BufferSize) / h.opts.SampleRate * float64(time.Second))
	h.wg.Add(1)
	go h.run(h.done, period)

	h.opts.logger().Info("audio started", "backend", "headless", "period", period)
	return nil
}

func (h *Headless) run(done <-chan struct{}, period time.Duration) {
	defer h.wg.Done()
	buf := make([]float32, h.opts.BufferSize)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.voice.Process(buf)
		}
	}
}

func (h *Headless) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done == nil {
		return nil
	}
	close(h.done)
	h.wg.Wait()
	h.done = nil
	h.opts.logger().Info("audio stopped", "backend", "headless")
	return nil
}
