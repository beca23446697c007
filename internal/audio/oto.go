package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/san-kum/stringsim/internal/voice"
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// oto allows a single context per process.
func otoContext(opts Options) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(opts.SampleRate),
			ChannelCount: opts.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   0,
		})
		if otoErr == nil {
			<-ready
		}
	})
	return otoCtx, otoErr
}

// Oto plays through an oto player pulling interleaved float32 frames.
type Oto struct {
	voice *voice.Voice
	opts  Options

	mu     sync.Mutex
	player *oto.Player
	mono   []float32
}

func NewOto(v *voice.Voice, opts Options) *Oto {
	return &Oto{
		voice: v,
		opts:  opts,
		mono:  make([]float32, opts.BufferSize),
	}
}

func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		return nil
	}

	ctx, err := otoContext(o.opts)
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}
	o.player = ctx.NewPlayer(o)
	o.player.Play()
	o.opts.logger().Info("audio started", "backend", "oto",
		"rate", o.opts.SampleRate, "channels", o.opts.Channels)
	return nil
}

// Read implements io.Reader for the oto player. It runs on oto's goroutine.
func (o *Oto) Read(p []byte) (int, error) {
	frameBytes := 4 * o.opts.Channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	o.mono = monoBlock(o.mono, frames)
	o.voice.Process(o.mono)

	for i, x := range o.mono {
		bits := math.Float32bits(x)
		for c := 0; c < o.opts.Channels; c++ {
			binary.LittleEndian.PutUint32(p[i*frameBytes+c*4:], bits)
		}
	}
	return frames * frameBytes, nil
}

func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.opts.logger().Info("audio stopped", "backend", "oto")
	return err
}
